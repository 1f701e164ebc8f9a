package pipeline

import (
	"context"
	"fmt"
	"time"

	"bookmark-organizer/internal/classifier"
	"bookmark-organizer/internal/model"
	"bookmark-organizer/internal/parser"

	"github.com/sirupsen/logrus"
)

// MetadataSource looks up titles and descriptions for URLs
type MetadataSource interface {
	FetchAll(ctx context.Context, urls []string) map[string]model.Metadata
}

// BookmarkClassifier classifies bookmarks and exposes the merged result
type BookmarkClassifier interface {
	ClassifyAll(ctx context.Context, bookmarks []model.Bookmark) classifier.Report
	GetItems() []model.ClassifiedBookmark
	GetResult() map[string]map[string]string
	GetStatistics() map[string]int
}

// Output is what one run produced
type Output struct {
	Items      []model.ClassifiedBookmark
	Result     map[string]map[string]string
	Statistics map[string]int
	Report     classifier.Report
	// Unfetched counts bookmarks whose metadata resolved to the sentinel pair
	Unfetched int
	Duration  time.Duration
}

// Run fetches metadata for every bookmark, then classifies them. Each stage
// completes before the next one starts.
func Run(ctx context.Context, bookmarks []model.Bookmark, source MetadataSource, cls BookmarkClassifier) (*Output, error) {
	if len(bookmarks) == 0 {
		return nil, fmt.Errorf("no bookmarks to organize")
	}
	start := time.Now()

	metadata := source.FetchAll(ctx, parser.URLs(bookmarks))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("metadata fetch interrupted: %w", err)
	}

	enriched := make([]model.Bookmark, 0, len(bookmarks))
	unfetched := 0
	for _, b := range bookmarks {
		meta, ok := metadata[b.URL]
		if !ok {
			meta = model.SentinelMetadata
		}
		if meta.IsSentinel() {
			unfetched++
		}
		enriched = append(enriched, b.WithMetadata(meta))
	}

	logrus.WithFields(logrus.Fields{
		"bookmarks": len(enriched),
		"unfetched": unfetched,
	}).Info("Metadata stage complete")

	report := cls.ClassifyAll(ctx, enriched)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("classification interrupted: %w", err)
	}

	return &Output{
		Items:      cls.GetItems(),
		Result:     cls.GetResult(),
		Statistics: cls.GetStatistics(),
		Report:     report,
		Unfetched:  unfetched,
		Duration:   time.Since(start),
	}, nil
}
