// Package output provides consistent CLI output formatting.
package output

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out      io.Writer
	useColor bool
	styles   Styles
}

// New creates a new output Writer without color.
func New(out io.Writer) *Writer {
	return &Writer{
		out:    out,
		styles: NoColorStyles(),
	}
}

// NewAuto creates a Writer that colors output only when out is a terminal
// and NO_COLOR is unset.
func NewAuto(out io.Writer) *Writer {
	w := New(out)
	if IsTTY(out) && !DetectNoColor() {
		w.useColor = true
		w.styles = DefaultStyles()
	}
	return w
}

// UseColor reports whether the writer emits styled output.
func (w *Writer) UseColor() bool {
	return w.useColor
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", w.styles.Success.Render(msg))
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", w.styles.Warning.Render(msg))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", w.styles.Error.Render(msg))
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Header prints a section heading.
func (w *Writer) Header(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Header.Render(msg))
}

// KeyValue prints an aligned "key: value" line.
func (w *Writer) KeyValue(key, value string) {
	label := key + ":"
	pad := 12 - utf8.RuneCountInString(label)
	if pad < 0 {
		pad = 0
	}
	_, _ = fmt.Fprintf(w.out, "  %s%s %s\n", w.styles.Label.Render(label), strings.Repeat(" ", pad), value)
}

// Item prints one list entry: an identifier, a title and a dim detail line.
func (w *Writer) Item(id, title, detail string) {
	_, _ = fmt.Fprintf(w.out, "%s  %s\n", w.styles.ID.Render(id), title)
	if detail != "" {
		_, _ = fmt.Fprintf(w.out, "    %s\n", w.styles.Dim.Render(detail))
	}
}

// Code prints a block with indentation.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(content, "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
