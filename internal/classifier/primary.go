package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookmark-organizer/internal/model"
)

// ErrNoMetadata marks a bookmark whose metadata fetch failed; Primary
// has nothing to classify from and leaves it to Backup
var ErrNoMetadata = errors.New("bookmark has no fetched metadata")

// Primary classifies bookmarks from their title, description and URL
type Primary struct {
	tier
}

// NewPrimary creates the content-based classifier
func NewPrimary(completer Completer, config Config) *Primary {
	return &Primary{tier: newTier(TierPrimary, completer, config, primaryPrompt)}
}

// Classify classifies a single bookmark
func (p *Primary) Classify(ctx context.Context, b model.Bookmark) Outcome {
	return p.classify(ctx, b)
}

func primaryPrompt(b model.Bookmark, set model.CategorySet) (string, error) {
	if !b.HasMetadata() {
		return "", ErrNoMetadata
	}

	var sb strings.Builder
	sb.WriteString("You are a bookmark classification assistant. Classify the web page below.\n\n")
	fmt.Fprintf(&sb, "Title: %s\n", b.Title)
	fmt.Fprintf(&sb, "Description: %s\n", b.Description)
	fmt.Fprintf(&sb, "URL: %s\n\n", b.URL)
	fmt.Fprintf(&sb, "Categories (choose exactly one): %s\n\n", set)
	writeRequirements(&sb)

	return sb.String(), nil
}

// writeRequirements appends the output contract shared by both tiers
func writeRequirements(sb *strings.Builder) {
	sb.WriteString("Requirements:\n")
	sb.WriteString("1) Name: a short site name, never \"untitled\";\n")
	sb.WriteString("2) Description: at most 50 characters on what the site is used for;\n")
	sb.WriteString("3) Category: exactly one label from the list above, spelled as listed;\n")
	sb.WriteString("4) Url: the URL unchanged.\n\n")
	sb.WriteString("Reply with exactly these four lines and nothing else:\n")
	sb.WriteString("Name: xxx\nDescription: xxx\nCategory: xxx\nUrl: xxx\n")
}
