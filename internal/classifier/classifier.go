package classifier

import (
	"context"
	"time"

	"bookmark-organizer/internal/model"
	"bookmark-organizer/internal/retry"
	"bookmark-organizer/internal/stats"

	"github.com/sirupsen/logrus"
)

// Config holds the settings shared by both classification tiers
type Config struct {
	MaxConcurrency int
	Retry          retry.Policy
	Categories     model.CategorySet
}

// Report summarizes one ClassifyAll run
type Report struct {
	Total            int
	PrimarySucceeded int
	BackupAttempted  int
	BackupSucceeded  int
	// Dropped lists the URLs neither tier could classify
	Dropped  []string
	Duration time.Duration
}

// Classified returns the number of bookmarks that reached the result
func (r Report) Classified() int {
	return r.PrimarySucceeded + r.BackupSucceeded
}

// Classifier runs the primary tier over every bookmark and the backup
// tier over exactly the ones primary could not classify
type Classifier struct {
	primary *Primary
	backup  *Backup
	result  *Result
	stats   *stats.StatTracker
}

// New creates a classifier; tracker may be nil
func New(config Config, completer Completer, tracker *stats.StatTracker) *Classifier {
	return &Classifier{
		primary: NewPrimary(completer, config),
		backup:  NewBackup(completer, config),
		result:  NewResult(),
		stats:   tracker,
	}
}

// ClassifyAll classifies bookmarks into the result. Per-item failures never
// abort the run; bookmarks neither tier can classify are left out.
func (c *Classifier) ClassifyAll(ctx context.Context, bookmarks []model.Bookmark) Report {
	start := time.Now()
	report := Report{Total: len(bookmarks)}

	logrus.WithField("total_bookmarks", len(bookmarks)).Info("Starting primary classification")

	outcomes := c.primary.classifyAll(ctx, bookmarks, func(o Outcome) {
		if o.OK() {
			c.result.Add(*o.Item)
		}
		c.stats.RecordPrimary(o.Bookmark.URL, o.OK())
	})

	var failed []model.Bookmark
	for _, o := range outcomes {
		if o.OK() {
			report.PrimarySucceeded++
		} else {
			failed = append(failed, o.Bookmark)
		}
	}

	logrus.WithFields(logrus.Fields{
		"succeeded": report.PrimarySucceeded,
		"failed":    len(failed),
	}).Info("Primary classification finished")

	if len(failed) > 0 {
		report.BackupAttempted = len(failed)
		c.stats.StartBackup(len(failed))

		logrus.WithField("bookmarks", len(failed)).Info("Starting backup classification")

		backupOutcomes := c.backup.ClassifyFailed(ctx, failed, func(o Outcome) {
			if o.OK() {
				c.result.Add(*o.Item)
			}
			c.stats.RecordBackup(o.Bookmark.URL, o.OK())
		})

		for _, o := range backupOutcomes {
			if o.OK() {
				report.BackupSucceeded++
			} else {
				report.Dropped = append(report.Dropped, o.Bookmark.URL)
			}
		}

		logrus.WithFields(logrus.Fields{
			"succeeded": report.BackupSucceeded,
			"dropped":   len(report.Dropped),
		}).Info("Backup classification finished")
	}

	report.Duration = time.Since(start)

	logrus.WithFields(logrus.Fields{
		"classified": report.Classified(),
		"total":      report.Total,
		"items":      c.result.Len(),
		"duration":   report.Duration,
	}).Info("Classification completed")

	for _, url := range report.Dropped {
		logrus.WithField("url", url).Debug("Bookmark could not be classified")
	}

	return report
}

// GetResult returns the grouped mapping category -> composite key -> URL
func (c *Classifier) GetResult() map[string]map[string]string {
	return c.result.GetResult()
}

// GetItems returns the classified bookmarks
func (c *Classifier) GetItems() []model.ClassifiedBookmark {
	return c.result.GetItems()
}

// GetStatistics returns the number of items per category
func (c *Classifier) GetStatistics() map[string]int {
	return c.result.GetStatistics()
}
