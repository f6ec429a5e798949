package mcp

import (
	"fmt"
	"strings"

	"github.com/braint-ru/catalog/internal/search"
)

// FormatSearchResults formats search results as markdown.
func FormatSearchResults(query string, results []search.Summary) string {
	if len(results) == 0 {
		return fmt.Sprintf("No articles found for \"%s\"", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search Results for \"%s\"\n\n", query)
	fmt.Fprintf(&sb, "Found %d article", len(results))
	if len(results) != 1 {
		sb.WriteString("s")
	}
	sb.WriteString("\n\n")

	for i, r := range results {
		formatSummary(&sb, i+1, r)
	}
	return sb.String()
}

func formatSummary(sb *strings.Builder, num int, s search.Summary) {
	fmt.Fprintf(sb, "### %d. %s\n", num, s.Title)
	fmt.Fprintf(sb, "**ID:** `%s` | **Category:** %s\n", s.ID, s.Category)
	if len(s.Tags) > 0 {
		fmt.Fprintf(sb, "**Tags:** %s\n", strings.Join(s.Tags, ", "))
	}
	fmt.Fprintf(sb, "**Path:** %s\n\n", s.Path)
}

// FormatArticle formats one article with its body as markdown.
func FormatArticle(a *search.Article) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", a.Title)
	fmt.Fprintf(&sb, "**ID:** `%s` | **Category:** %s\n", a.ID, a.Category)
	if len(a.Tags) > 0 {
		fmt.Fprintf(&sb, "**Tags:** %s\n", strings.Join(a.Tags, ", "))
	}
	if len(a.Aliases) > 0 {
		fmt.Fprintf(&sb, "**Also known as:** %s\n", strings.Join(a.Aliases, ", "))
	}
	fmt.Fprintf(&sb, "**Path:** %s\n\n", a.Path)
	sb.WriteString(strings.TrimSpace(a.Body))
	sb.WriteString("\n")
	return sb.String()
}

// FormatCategories formats the category listing as markdown.
func FormatCategories(groups []search.CategoryGroup) string {
	if len(groups) == 0 {
		return "The catalogue is empty."
	}

	var sb strings.Builder
	sb.WriteString("## Categories\n\n")
	for _, g := range groups {
		fmt.Fprintf(&sb, "### %s (%d)\n", g.Name, len(g.Articles))
		for _, a := range g.Articles {
			fmt.Fprintf(&sb, "- %s (`%s`)\n", a.Title, a.ID)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
