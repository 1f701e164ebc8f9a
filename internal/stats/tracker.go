package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Stage names passed to the progress callback
const (
	StageFetch   = "fetch"
	StagePrimary = "primary"
	StageBackup  = "backup"
)

// ProcessingStats is a snapshot of the pipeline counters
type ProcessingStats struct {
	TotalBookmarks int64 `json:"total_bookmarks"`

	// Metadata fetch
	CacheHits       int64 `json:"cache_hits"`
	MetadataFetched int64 `json:"metadata_fetched"`
	MetadataFailed  int64 `json:"metadata_failed"`

	// Classification tiers
	PrimarySucceeded int64 `json:"primary_succeeded"`
	PrimaryFailed    int64 `json:"primary_failed"`
	BackupSucceeded  int64 `json:"backup_succeeded"`
	BackupFailed     int64 `json:"backup_failed"`

	// Timing
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// Classified returns the number of bookmarks that ended up in the output
func (s ProcessingStats) Classified() int64 {
	return s.PrimarySucceeded + s.BackupSucceeded
}

// Dropped returns the number of bookmarks neither tier could classify
func (s ProcessingStats) Dropped() int64 {
	return s.BackupFailed
}

// ProgressFunc receives one call per finished item of a stage
type ProgressFunc func(stage string, processed, total int64, url string, success bool)

// StatTracker collects statistics during processing.
// A nil *StatTracker is valid and records nothing.
type StatTracker struct {
	stats ProcessingStats

	fetchProcessed   int64
	primaryProcessed int64
	backupProcessed  int64
	backupTotal      int64

	mu               sync.RWMutex
	progressCallback ProgressFunc
}

// NewStatTracker creates a new statistics tracker
func NewStatTracker(totalBookmarks int) *StatTracker {
	return &StatTracker{
		stats: ProcessingStats{
			TotalBookmarks: int64(totalBookmarks),
			StartTime:      time.Now(),
		},
	}
}

// SetProgressCallback sets a callback function for progress reporting
func (st *StatTracker) SetProgressCallback(callback ProgressFunc) {
	if st == nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.progressCallback = callback
}

// RecordCacheHit increments the cache hit counter
func (st *StatTracker) RecordCacheHit(url string) {
	if st == nil {
		return
	}
	atomic.AddInt64(&st.stats.CacheHits, 1)
}

// RecordFetch records the outcome of one metadata lookup
func (st *StatTracker) RecordFetch(url string, success bool) {
	if st == nil {
		return
	}
	if success {
		atomic.AddInt64(&st.stats.MetadataFetched, 1)
	} else {
		atomic.AddInt64(&st.stats.MetadataFailed, 1)
	}
	processed := atomic.AddInt64(&st.fetchProcessed, 1)
	st.reportProgress(StageFetch, processed, st.stats.TotalBookmarks, url, success)
}

// RecordPrimary records the outcome of one primary classification
func (st *StatTracker) RecordPrimary(url string, success bool) {
	if st == nil {
		return
	}
	if success {
		atomic.AddInt64(&st.stats.PrimarySucceeded, 1)
	} else {
		atomic.AddInt64(&st.stats.PrimaryFailed, 1)
	}
	processed := atomic.AddInt64(&st.primaryProcessed, 1)
	st.reportProgress(StagePrimary, processed, st.stats.TotalBookmarks, url, success)
}

// StartBackup announces how many items the backup tier will handle
func (st *StatTracker) StartBackup(total int) {
	if st == nil {
		return
	}
	atomic.StoreInt64(&st.backupTotal, int64(total))
}

// RecordBackup records the outcome of one backup classification
func (st *StatTracker) RecordBackup(url string, success bool) {
	if st == nil {
		return
	}
	if success {
		atomic.AddInt64(&st.stats.BackupSucceeded, 1)
	} else {
		atomic.AddInt64(&st.stats.BackupFailed, 1)
	}
	processed := atomic.AddInt64(&st.backupProcessed, 1)
	st.reportProgress(StageBackup, processed, atomic.LoadInt64(&st.backupTotal), url, success)
}

// reportProgress calls the progress callback if set
func (st *StatTracker) reportProgress(stage string, processed, total int64, url string, success bool) {
	st.mu.RLock()
	callback := st.progressCallback
	st.mu.RUnlock()

	if callback != nil {
		callback(stage, processed, total, url, success)
	}
}

// Finish marks the end of processing and calculates final timing
func (st *StatTracker) Finish() {
	if st == nil {
		return
	}
	st.mu.Lock()
	st.stats.EndTime = time.Now()
	st.stats.ProcessingTime = st.stats.EndTime.Sub(st.stats.StartTime)
	st.mu.Unlock()

	snapshot := st.GetStats()
	logrus.WithFields(logrus.Fields{
		"total_bookmarks":   snapshot.TotalBookmarks,
		"cache_hits":        snapshot.CacheHits,
		"metadata_fetched":  snapshot.MetadataFetched,
		"metadata_failed":   snapshot.MetadataFailed,
		"primary_succeeded": snapshot.PrimarySucceeded,
		"backup_succeeded":  snapshot.BackupSucceeded,
		"dropped":           snapshot.Dropped(),
		"processing_time":   snapshot.ProcessingTime,
	}).Info("Processing statistics finalized")
}

// GetStats returns a copy of the current statistics
func (st *StatTracker) GetStats() ProcessingStats {
	if st == nil {
		return ProcessingStats{}
	}
	st.mu.RLock()
	endTime, processingTime := st.stats.EndTime, st.stats.ProcessingTime
	st.mu.RUnlock()

	return ProcessingStats{
		TotalBookmarks:   atomic.LoadInt64(&st.stats.TotalBookmarks),
		CacheHits:        atomic.LoadInt64(&st.stats.CacheHits),
		MetadataFetched:  atomic.LoadInt64(&st.stats.MetadataFetched),
		MetadataFailed:   atomic.LoadInt64(&st.stats.MetadataFailed),
		PrimarySucceeded: atomic.LoadInt64(&st.stats.PrimarySucceeded),
		PrimaryFailed:    atomic.LoadInt64(&st.stats.PrimaryFailed),
		BackupSucceeded:  atomic.LoadInt64(&st.stats.BackupSucceeded),
		BackupFailed:     atomic.LoadInt64(&st.stats.BackupFailed),
		StartTime:        st.stats.StartTime,
		EndTime:          endTime,
		ProcessingTime:   processingTime,
	}
}

// FormatSummary creates a user-friendly summary of processing results
func (st *StatTracker) FormatSummary(quiet bool) string {
	if quiet {
		return ""
	}

	stats := st.GetStats()

	return fmt.Sprintf("Classified %d of %d bookmarks (%.1f%%; %d primary, %d backup, %d dropped); metadata for %d, %d failed, %d cached (Processing time: %v)",
		stats.Classified(),
		stats.TotalBookmarks,
		st.GetSuccessRate(),
		stats.PrimarySucceeded,
		stats.BackupSucceeded,
		stats.Dropped(),
		stats.MetadataFetched,
		stats.MetadataFailed,
		stats.CacheHits,
		stats.ProcessingTime.Round(time.Second))
}

// FormatProgressUpdate creates a progress update message
func FormatProgressUpdate(stage string, processed, total int64, url string, success bool) string {
	status := "✓"
	if !success {
		status = "✗"
	}

	return fmt.Sprintf("[%s %d/%d] %s %s", stage, processed, total, status, url)
}

// GetSuccessRate returns the classification success rate as a percentage
func (st *StatTracker) GetSuccessRate() float64 {
	stats := st.GetStats()
	if stats.TotalBookmarks == 0 {
		return 0.0
	}
	return float64(stats.Classified()) / float64(stats.TotalBookmarks) * 100.0
}
