package classifier

import (
	"context"
	"errors"
	"fmt"

	"bookmark-organizer/internal/model"
	"bookmark-organizer/internal/retry"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/semaphore"
)

// Completer sends a prompt to a language model and returns its reply
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Tier names a classification pass
type Tier string

const (
	TierPrimary Tier = "primary"
	TierBackup  Tier = "backup"
)

// Outcome is the result of classifying one bookmark
type Outcome struct {
	Bookmark model.Bookmark
	Item     *model.ClassifiedBookmark
	Tier     Tier
	Err      error
}

// OK reports whether the bookmark was classified
func (o Outcome) OK() bool {
	return o.Err == nil && o.Item != nil
}

// promptFunc builds the prompt for one bookmark; an error skips the model call
type promptFunc func(b model.Bookmark, set model.CategorySet) (string, error)

// tier runs one classification pass with bounded concurrency and retries
type tier struct {
	name       Tier
	completer  Completer
	categories model.CategorySet
	retry      retry.Policy
	sem        *semaphore.Weighted
	prompt     promptFunc
}

func newTier(name Tier, completer Completer, config Config, prompt promptFunc) tier {
	concurrency := config.MaxConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return tier{
		name:       name,
		completer:  completer,
		categories: config.Categories,
		retry:      config.Retry,
		sem:        semaphore.NewWeighted(int64(concurrency)),
		prompt:     prompt,
	}
}

// classify asks the model about one bookmark
func (t *tier) classify(ctx context.Context, b model.Bookmark) Outcome {
	out := Outcome{Bookmark: b, Tier: t.name}

	prompt, err := t.prompt(b, t.categories)
	if err != nil {
		out.Err = err
		return out
	}

	var item model.ClassifiedBookmark
	err = retry.Do(ctx, t.retry, fmt.Sprintf("%s classification", t.name), func(ctx context.Context) error {
		content, err := t.complete(ctx, prompt)
		if err != nil {
			return err
		}

		parsed, clamped, err := ParseResponse(content, t.categories)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"url":      b.URL,
				"tier":     t.name,
				"response": content,
			}).Debug("Could not parse model response")
			return err
		}
		if clamped {
			logrus.WithFields(logrus.Fields{
				"url":      b.URL,
				"tier":     t.name,
				"category": parsed.Category,
			}).Warn("Model returned unknown category, using default")
		}

		item = parsed
		return nil
	})
	if err != nil {
		out.Err = err
		return out
	}

	if item.URL != b.URL {
		logrus.WithFields(logrus.Fields{
			"url":    b.URL,
			"echoed": item.URL,
			"tier":   t.name,
		}).Debug("Model echoed a different URL, keeping the bookmark URL")
	}
	item.URL = b.URL

	logrus.WithFields(logrus.Fields{
		"url":      b.URL,
		"tier":     t.name,
		"category": item.Category,
	}).Debug("Classified bookmark")

	out.Item = &item
	return out
}

// complete holds a concurrency permit for a single model call; the permit
// is not held across retry delays
func (t *tier) complete(ctx context.Context, prompt string) (string, error) {
	if err := t.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer t.sem.Release(1)

	return t.completer.Complete(ctx, prompt)
}

// classifyAll classifies every bookmark concurrently. done, if set, is called
// as each outcome completes; a panic becomes a failed outcome.
func (t *tier) classifyAll(ctx context.Context, bookmarks []model.Bookmark, done func(Outcome)) []Outcome {
	p := pool.NewWithResults[Outcome]()
	for _, b := range bookmarks {
		p.Go(func() Outcome {
			var out Outcome

			var pc panics.Catcher
			pc.Try(func() { out = t.classify(ctx, b) })
			if r := pc.Recovered(); r != nil {
				out = Outcome{Bookmark: b, Tier: t.name, Err: r.AsError()}
			}

			if !out.OK() && !errors.Is(out.Err, ErrNoMetadata) {
				logrus.WithFields(logrus.Fields{
					"url":   b.URL,
					"tier":  t.name,
					"error": out.Err,
				}).Debug("Classification failed")
			}

			if done != nil {
				done(out)
			}
			return out
		})
	}
	return p.Wait()
}
