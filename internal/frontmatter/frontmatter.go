// Package frontmatter splits a content file into its metadata header and body.
//
// Two header styles are recognized at the very start of the file:
//
//	---            +++
//	title: ...     title = "..."
//	---            +++
//
// YAML headers are decoded with gopkg.in/yaml.v3, TOML headers with
// github.com/BurntSushi/toml. A file without a header has empty metadata
// and the whole text as body.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format identifies the header syntax.
type Format string

const (
	FormatNone Format = ""
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrUnterminated is returned when an opening delimiter has no closing one.
var ErrUnterminated = errors.New("unterminated front matter")

// Document is a parsed content file.
type Document struct {
	Format Format
	Meta   map[string]any
	Body   string
}

var bom = []byte("\xef\xbb\xbf")

// Parse splits raw into header and body and decodes the header.
func Parse(raw []byte) (Document, error) {
	raw = bytes.TrimPrefix(raw, bom)

	var (
		format Format
		delim  []byte
	)
	switch {
	case hasDelimiterLine(raw, []byte("---")):
		format, delim = FormatYAML, []byte("---")
	case hasDelimiterLine(raw, []byte("+++")):
		format, delim = FormatTOML, []byte("+++")
	default:
		return Document{Body: string(raw)}, nil
	}

	header, body, ok := split(raw, delim)
	if !ok {
		return Document{}, ErrUnterminated
	}

	meta := make(map[string]any)
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(header, &meta); err != nil {
			return Document{}, fmt.Errorf("decode yaml front matter: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(header, &meta); err != nil {
			return Document{}, fmt.Errorf("decode toml front matter: %w", err)
		}
	}
	if meta == nil {
		// An empty YAML header decodes to a nil map.
		meta = make(map[string]any)
	}

	return Document{Format: format, Meta: meta, Body: string(body)}, nil
}

// hasDelimiterLine reports whether the first line of raw is exactly delim.
func hasDelimiterLine(raw, delim []byte) bool {
	line, _, _ := cutLine(raw)
	return bytes.Equal(line, delim)
}

// split returns the header between the opening and closing delimiter lines
// and everything after the closing line.
func split(raw, delim []byte) (header, body []byte, ok bool) {
	_, rest, _ := cutLine(raw)
	start := rest

	for len(rest) > 0 {
		line, next, _ := cutLine(rest)
		if bytes.Equal(line, delim) {
			header = start[:len(start)-len(rest)]
			return header, next, true
		}
		rest = next
	}
	return nil, nil, false
}

// cutLine returns the first line of b without its terminator (\n or \r\n)
// and the remainder after it.
func cutLine(b []byte) (line, rest []byte, found bool) {
	line, rest, found = bytes.Cut(b, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return line, rest, found
}
