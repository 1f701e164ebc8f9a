package cache

import (
	"sync"
	"time"

	"bookmark-organizer/internal/model"

	"github.com/sirupsen/logrus"
)

// CacheEntry represents a single cached metadata lookup
type CacheEntry struct {
	URL       string         `json:"url"`
	Metadata  model.Metadata `json:"metadata"`
	Timestamp time.Time      `json:"timestamp"`
}

// Cache holds metadata lookups for the lifetime of one fetcher; it is never persisted
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
}

// NewCache creates a new, empty cache instance
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*CacheEntry),
	}
}

// Get retrieves a cached entry if it exists
func (c *Cache) Get(url string) (model.Metadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[url]
	if !exists {
		logrus.WithField("url", url).Debug("Cache miss: no entry found")
		return model.Metadata{}, false
	}

	logrus.WithFields(logrus.Fields{
		"url":   url,
		"title": entry.Metadata.Title,
		"age":   time.Since(entry.Timestamp),
	}).Debug("Cache hit: returning entry")

	return entry.Metadata, true
}

// Set stores the metadata found for url
func (c *Cache) Set(url string, meta model.Metadata) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[url] = &CacheEntry{
		URL:       url,
		Metadata:  meta,
		Timestamp: time.Now(),
	}

	logrus.WithFields(logrus.Fields{
		"url":      url,
		"title":    meta.Title,
		"sentinel": meta.IsSentinel(),
	}).Debug("Cached metadata lookup")
}

// SetFailed stores the sentinel pair for a URL whose lookup failed.
// This prevents repeated attempts for the same URL within a run.
func (c *Cache) SetFailed(url string) {
	c.Set(url, model.SentinelMetadata)
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every entry
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*CacheEntry)
	logrus.Debug("Metadata cache cleared")
}

// Stats returns the total number of entries and how many carry real metadata
func (c *Cache) Stats() (int, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	totalEntries := len(c.entries)
	successfulEntries := 0

	for _, entry := range c.entries {
		if !entry.Metadata.IsSentinel() {
			successfulEntries++
		}
	}

	return totalEntries, successfulEntries
}
