package fetcher

import (
	"strings"
	"testing"

	"bookmark-organizer/internal/model"
)

func TestExtract(t *testing.T) {
	long := strings.Repeat("x", 150)

	tests := []struct {
		name        string
		html        string
		title       string
		description string
	}{
		{
			name:        "title and meta description",
			html:        `<html><head><title> Go   Packages </title><meta name="description" content="Find Go packages"></head></html>`,
			title:       "Go Packages",
			description: "Find Go packages",
		},
		{
			name:        "home suffix stripped",
			html:        `<title>Example - Home</title>`,
			title:       "Example",
			description: model.SentinelDescription,
		},
		{
			name:        "official site suffix stripped",
			html:        `<title>Vendor | Official Site</title>`,
			title:       "Vendor",
			description: model.SentinelDescription,
		},
		{
			name:        "h1 fallback",
			html:        `<html><body><h1>Heading</h1><p>First paragraph</p></body></html>`,
			title:       "Heading",
			description: "First paragraph",
		},
		{
			name:        "og tags",
			html:        `<html><head><meta property="og:title" content="OG Title"><meta property="og:description" content="OG Desc"></head></html>`,
			title:       "OG Title",
			description: "OG Desc",
		},
		{
			name:        "selector fallback",
			html:        `<html><body><div class="site-title">Brand Site</div><div class="summary">Short summary</div></body></html>`,
			title:       "Brand Site",
			description: "Short summary",
		},
		{
			name:        "heading beats logo that comes first",
			html:        `<html><body><div class="logo">Logo Text</div><h2>Real Heading</h2></body></html>`,
			title:       "Real Heading",
			description: model.SentinelDescription,
		},
		{
			name:        "description class beats content that comes first",
			html:        `<html><body><h3>Site</h3><div class="content">Main content</div><div class="description">What it is</div></body></html>`,
			title:       "Site",
			description: "What it is",
		},
		{
			name:        "long text truncated",
			html:        `<title>` + long + `</title><p>` + long + `</p>`,
			title:       strings.Repeat("x", 100) + "...",
			description: strings.Repeat("x", 100) + "...",
		},
		{
			name:        "nothing found",
			html:        `<html><body></body></html>`,
			title:       model.SentinelTitle,
			description: model.SentinelDescription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.html)
			if got.Title != tt.title {
				t.Errorf("title = %q, want %q", got.Title, tt.title)
			}
			if got.Description != tt.description {
				t.Errorf("description = %q, want %q", got.Description, tt.description)
			}
		})
	}
}

func TestTruncate_CountsRunes(t *testing.T) {
	s := strings.Repeat("界", 101)
	got := truncate(s, 100)
	if got != strings.Repeat("界", 100)+"..." {
		t.Errorf("unexpected truncation %q", got)
	}
	if truncate("short", 100) != "short" {
		t.Error("short text should be unchanged")
	}
}
