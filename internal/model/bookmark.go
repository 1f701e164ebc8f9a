package model

import (
	"fmt"
	"time"
)

// Bookmark represents a single link extracted from a bookmark export
type Bookmark struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Description string     `json:"description"`
	Folder      string     `json:"folder"`
	AddDate     *time.Time `json:"add_date,omitempty"`
}

// Rename replaces the bookmark title
func (b *Bookmark) Rename(newTitle string) {
	b.Title = newTitle
}

// WithMetadata returns a copy of the bookmark carrying the fetched title and description
func (b Bookmark) WithMetadata(meta Metadata) Bookmark {
	b.Rename(meta.Title)
	b.Description = meta.Description
	return b
}

// HasMetadata reports whether the bookmark carries anything other than the sentinel pair
func (b Bookmark) HasMetadata() bool {
	return !Metadata{Title: b.Title, Description: b.Description}.IsSentinel()
}

func (b Bookmark) String() string {
	return fmt.Sprintf("%s (%s) - %s", b.Title, b.URL, b.Description)
}

// ClassifiedBookmark is the cleaned-up, categorized form of a bookmark
type ClassifiedBookmark struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	URL         string `json:"url"`
}

// Key returns the composite "name - description" key used inside a category
func (c ClassifiedBookmark) Key() string {
	return fmt.Sprintf("%s - %s", c.Name, c.Description)
}
