package mcp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/braint-ru/catalog/internal/search"
)

func TestFormatSearchResults_Empty(t *testing.T) {
	assert.Equal(t, `No articles found for "xyz"`, FormatSearchResults("xyz", nil))
}

func TestFormatSearchResults_Numbered(t *testing.T) {
	results := []search.Summary{
		{ID: "a", Title: "Alpha", Category: "Letters", Tags: []string{"first"}, Path: "/articles/a"},
		{ID: "b", Title: "Beta", Category: "Letters", Tags: []string{}, Path: "/articles/b"},
	}

	md := FormatSearchResults("letters", results)

	assert.Contains(t, md, "Found 2 articles")
	assert.Contains(t, md, "### 1. Alpha")
	assert.Contains(t, md, "### 2. Beta")
	assert.Contains(t, md, "**Tags:** first")
	assert.Equal(t, 1, strings.Count(md, "**Tags:**"), "empty tag lists are omitted")
}

func TestFormatArticle(t *testing.T) {
	a := &search.Article{
		ID:       "vitamin-d",
		Title:    "Витамин D",
		Category: "Витамины",
		Tags:     []string{"кости"},
		Path:     "/articles/vitamin-d",
		Body:     "\n\nТекст статьи.\n\n",
	}

	md := FormatArticle(a)

	assert.True(t, strings.HasPrefix(md, "# Витамин D\n\n"))
	assert.NotContains(t, md, "Also known as")
	assert.True(t, strings.HasSuffix(md, "**Path:** /articles/vitamin-d\n\nТекст статьи.\n"))
}

func TestFormatCategories(t *testing.T) {
	assert.Equal(t, "The catalogue is empty.", FormatCategories(nil))

	md := FormatCategories([]search.CategoryGroup{
		{Name: "Витамины", Articles: []search.Summary{{ID: "d", Title: "Витамин D"}}},
	})
	assert.Contains(t, md, "### Витамины (1)\n- Витамин D (`d`)\n")
}
