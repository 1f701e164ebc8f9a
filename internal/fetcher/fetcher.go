package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"bookmark-organizer/internal/cache"
	"bookmark-organizer/internal/model"
	"bookmark-organizer/internal/retry"
	"bookmark-organizer/internal/stats"
	"bookmark-organizer/internal/urlutil"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Config holds configuration for metadata fetching
type Config struct {
	MaxConcurrency int
	UserAgent      string
	DelayMin       time.Duration
	DelayMax       time.Duration
	Retry          retry.Policy
	HTTP           HTTPConfig
}

// Fetcher retrieves page titles and descriptions, caching every result for
// the lifetime of the instance
type Fetcher struct {
	config     Config
	client     *HTTPClient
	strategies []Strategy
	cache      *cache.Cache
	sem        *semaphore.Weighted
	flights    singleflight.Group
	stats      *stats.StatTracker
}

// New creates a fetcher; tracker may be nil
func New(config Config, tracker *stats.StatTracker) *Fetcher {
	if config.MaxConcurrency < 1 {
		config.MaxConcurrency = 1
	}
	if config.UserAgent == "" {
		config.UserAgent = userAgents[0]
	}

	return &Fetcher{
		config:     config,
		client:     NewHTTPClient(config.HTTP),
		strategies: DefaultStrategies(),
		cache:      cache.NewCache(),
		sem:        semaphore.NewWeighted(int64(config.MaxConcurrency)),
		stats:      tracker,
	}
}

type fetched struct {
	url  string
	meta model.Metadata
}

// FetchAll looks up metadata for every URL concurrently. Every URL gets an
// entry; failures resolve to the sentinel pair.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) map[string]model.Metadata {
	logrus.WithFields(logrus.Fields{
		"total_urls":      len(urls),
		"max_concurrency": f.config.MaxConcurrency,
	}).Info("Starting metadata fetch")

	p := pool.NewWithResults[fetched]()
	for _, u := range urls {
		p.Go(func() fetched {
			meta := model.SentinelMetadata

			var pc panics.Catcher
			pc.Try(func() { meta = f.FetchOne(ctx, u) })
			if r := pc.Recovered(); r != nil {
				logrus.WithFields(logrus.Fields{
					"url":   u,
					"panic": r.Value,
				}).Error("Metadata fetch panicked")
				meta = model.SentinelMetadata
			}

			f.stats.RecordFetch(u, !meta.IsSentinel())
			return fetched{url: u, meta: meta}
		})
	}

	results := make(map[string]model.Metadata, len(urls))
	failed := 0
	for _, r := range p.Wait() {
		results[r.url] = r.meta
		if r.meta.IsSentinel() {
			failed++
		}
	}

	cached, cachedWithMetadata := f.cache.Stats()
	logrus.WithFields(logrus.Fields{
		"total_urls":           len(results),
		"failed":               failed,
		"cached":               cached,
		"cached_with_metadata": cachedWithMetadata,
	}).Info("Completed metadata fetch")

	return results
}

// FetchOne returns the metadata for a single URL. Invalid URLs yield the
// sentinel pair without any network access.
func (f *Fetcher) FetchOne(ctx context.Context, rawURL string) model.Metadata {
	if !urlutil.IsWebURL(rawURL) {
		logrus.WithField("url", rawURL).Debug("Skipping URL without http(s) scheme")
		return model.SentinelMetadata
	}

	if meta, ok := f.cache.Get(rawURL); ok {
		f.stats.RecordCacheHit(rawURL)
		return meta
	}

	v, _, shared := f.flights.Do(rawURL, func() (interface{}, error) {
		if meta, ok := f.cache.Get(rawURL); ok {
			return meta, nil
		}
		return f.lookup(ctx, rawURL), nil
	})
	if shared {
		logrus.WithField("url", rawURL).Debug("Shared in-flight metadata lookup")
	}

	return v.(model.Metadata)
}

// lookup runs the strategy chain under the concurrency limit and caches the result
func (f *Fetcher) lookup(ctx context.Context, rawURL string) model.Metadata {
	if err := f.sem.Acquire(ctx, 1); err != nil {
		return model.SentinelMetadata
	}
	defer f.sem.Release(1)

	meta := model.SentinelMetadata
	err := retry.Do(ctx, f.config.Retry, "fetch metadata", func(ctx context.Context) error {
		var err error
		meta, err = f.runStrategies(ctx, rawURL)
		return err
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"url":   rawURL,
			"error": err,
		}).Debug("Metadata lookup failed")
		meta = model.SentinelMetadata
	}

	// an interrupted lookup says nothing about the URL
	if ctx.Err() != nil {
		return meta
	}

	if meta.IsSentinel() {
		f.cache.SetFailed(rawURL)
	} else {
		f.cache.Set(rawURL, meta)
	}
	return meta
}

// runStrategies tries each strategy in order and returns the first real title.
// It fails only when no strategy got any HTTP response at all.
func (f *Fetcher) runStrategies(ctx context.Context, rawURL string) (model.Metadata, error) {
	responded := false
	var lastErr error

	for _, strategy := range f.strategies {
		if strategy.Delayed {
			if err := retry.Sleep(ctx, f.randomDelay()); err != nil {
				return model.SentinelMetadata, err
			}
		}

		content, err := f.client.FetchPage(ctx, rawURL, strategy.Headers(f.config.UserAgent))
		if err != nil {
			if ctx.Err() != nil {
				return model.SentinelMetadata, ctx.Err()
			}
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				responded = true
			}
			lastErr = err

			logrus.WithFields(logrus.Fields{
				"url":      rawURL,
				"strategy": strategy.Name,
				"error":    err,
			}).Debug("Strategy failed")
			continue
		}
		responded = true

		meta := Extract(content)
		if meta.HasTitle() {
			logrus.WithFields(logrus.Fields{
				"url":      rawURL,
				"strategy": strategy.Name,
				"title":    meta.Title,
			}).Debug("Strategy found metadata")
			return meta, nil
		}

		logrus.WithFields(logrus.Fields{
			"url":      rawURL,
			"strategy": strategy.Name,
		}).Debug("Strategy response had no title")
	}

	if !responded && lastErr != nil {
		return model.SentinelMetadata, fmt.Errorf("no response from %s: %w", rawURL, lastErr)
	}
	return model.SentinelMetadata, nil
}

// randomDelay returns a duration uniform in [DelayMin, DelayMax]
func (f *Fetcher) randomDelay() time.Duration {
	lo, hi := f.config.DelayMin, f.config.DelayMax
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

// CacheSize returns the number of cached lookups
func (f *Fetcher) CacheSize() int {
	return f.cache.Len()
}

// ClearCache drops every cached lookup
func (f *Fetcher) ClearCache() {
	f.cache.Clear()
}
