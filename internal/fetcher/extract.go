package fetcher

import (
	"strings"

	"bookmark-organizer/internal/model"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

const maxTextLength = 100

// titleSuffixes are stripped from page titles
var titleSuffixes = []string{" - Home", " | Home", " - Official Site", " | Official Site"}

// Extract pulls the title and description out of an HTML document.
// A missing title or description yields the matching sentinel value.
func Extract(htmlContent string) model.Metadata {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		logrus.WithError(err).Debug("Failed to parse HTML document")
		return model.SentinelMetadata
	}

	return model.Metadata{
		Title:       extractTitle(doc),
		Description: extractDescription(doc),
	}
}

func extractTitle(doc *goquery.Document) string {
	title := firstNonEmpty(
		func() string { return text(doc.Find("title").First()) },
		func() string { return text(doc.Find("h1").First()) },
		func() string { return metaContent(doc, `meta[property="og:title"]`) },
		func() string { return firstMatch(doc, "h1", "h2", "h3", ".site-title", ".brand", ".logo") },
	)
	if title == "" {
		return model.SentinelTitle
	}

	for _, suffix := range titleSuffixes {
		title = strings.TrimSuffix(title, suffix)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return model.SentinelTitle
	}

	return truncate(title, maxTextLength)
}

func extractDescription(doc *goquery.Document) string {
	description := firstNonEmpty(
		func() string { return metaContent(doc, `meta[name="description"]`) },
		func() string { return metaContent(doc, `meta[property="og:description"]`) },
		func() string { return truncate(text(doc.Find("p").First()), maxTextLength) },
		func() string {
			return truncate(firstMatch(doc, ".description", ".summary", ".intro", ".content"), maxTextLength)
		},
	)
	if description == "" {
		return model.SentinelDescription
	}
	return description
}

func firstNonEmpty(candidates ...func() string) string {
	for _, candidate := range candidates {
		if s := candidate(); s != "" {
			return s
		}
	}
	return ""
}

// firstMatch tries each selector in priority order, not document order,
// and returns the text of the first one that matches something non-empty
func firstMatch(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if s := text(doc.Find(selector).First()); s != "" {
			return s
		}
	}
	return ""
}

func text(sel *goquery.Selection) string {
	return collapse(sel.Text())
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return collapse(content)
}

// collapse trims s and folds runs of whitespace into single spaces
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to limit runes, marking the cut with "..."
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
