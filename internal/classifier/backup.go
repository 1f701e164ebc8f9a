package classifier

import (
	"context"
	"fmt"
	"strings"

	"bookmark-organizer/internal/model"
	"bookmark-organizer/internal/urlutil"
)

// Backup classifies bookmarks from the structure of their URL alone. Title
// and description are never shown to the model since they are assumed to
// be unreliable for bookmarks that reach this tier.
type Backup struct {
	tier
}

// NewBackup creates the URL-only classifier
func NewBackup(completer Completer, config Config) *Backup {
	return &Backup{tier: newTier(TierBackup, completer, config, backupPrompt)}
}

// Classify classifies a single bookmark
func (b *Backup) Classify(ctx context.Context, bookmark model.Bookmark) Outcome {
	return b.classify(ctx, bookmark)
}

// ClassifyFailed classifies the bookmarks the primary tier could not. done,
// if set, is called as each outcome completes.
func (b *Backup) ClassifyFailed(ctx context.Context, bookmarks []model.Bookmark, done func(Outcome)) []Outcome {
	return b.classifyAll(ctx, bookmarks, done)
}

func backupPrompt(b model.Bookmark, set model.CategorySet) (string, error) {
	features := urlutil.ExtractFeatures(b.URL)

	var sb strings.Builder
	sb.WriteString("You are a fast classification assistant. The page content could not be read, ")
	sb.WriteString("so classify the site from the structure of its URL and common knowledge.\n\n")
	sb.WriteString("URL analysis:\n")
	fmt.Fprintf(&sb, "- Full URL: %s\n", features.FullURL)
	fmt.Fprintf(&sb, "- Domain: %s\n", orNone(features.Domain))
	fmt.Fprintf(&sb, "- Main domain: %s\n", orNone(features.MainDomain))
	fmt.Fprintf(&sb, "- Subdomain: %s\n", orNone(features.Subdomain))
	fmt.Fprintf(&sb, "- Path: %s\n", orNone(features.Path))
	fmt.Fprintf(&sb, "- Keywords: %s\n\n", orNone(strings.Join(features.Keywords(), ", ")))
	fmt.Fprintf(&sb, "Categories (choose exactly one): %s\n\n", set)
	writeRequirements(&sb)

	return sb.String(), nil
}

func orNone(s string) string {
	if s == "" || s == "/" {
		return "(none)"
	}
	return s
}
