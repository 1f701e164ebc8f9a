package classifier

import (
	"sync"

	"bookmark-organizer/internal/model"

	"github.com/sirupsen/logrus"
)

// Result accumulates classified bookmarks as a grouped mapping
// (category -> composite key -> URL) and a flat item list. The two views
// always hold the same items. Item order reflects completion order.
type Result struct {
	mu     sync.RWMutex
	groups map[string]map[string]string
	items  []model.ClassifiedBookmark
}

// NewResult creates an empty result
func NewResult() *Result {
	return &Result{
		groups: make(map[string]map[string]string),
	}
}

// Add records a classified bookmark. When its composite key already exists
// in the category, the earlier item is replaced in both views and Add
// returns true.
func (r *Result) Add(item model.ClassifiedBookmark) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.groups[item.Category]
	if !ok {
		group = make(map[string]string)
		r.groups[item.Category] = group
	}

	key := item.Key()
	previous, replaced := group[key]
	if replaced {
		logrus.WithFields(logrus.Fields{
			"category": item.Category,
			"key":      key,
			"previous": previous,
			"url":      item.URL,
		}).Debug("Composite key collision, keeping the later bookmark")

		for i, existing := range r.items {
			if existing.Category == item.Category && existing.Key() == key {
				r.items = append(r.items[:i], r.items[i+1:]...)
				break
			}
		}
	}

	group[key] = item.URL
	r.items = append(r.items, item)

	return replaced
}

// GetResult returns a copy of the grouped mapping
func (r *Result) GetResult() map[string]map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]map[string]string, len(r.groups))
	for category, group := range r.groups {
		urls := make(map[string]string, len(group))
		for key, url := range group {
			urls[key] = url
		}
		out[category] = urls
	}
	return out
}

// GetItems returns a copy of the flat item list
func (r *Result) GetItems() []model.ClassifiedBookmark {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.ClassifiedBookmark, len(r.items))
	copy(out, r.items)
	return out
}

// GetStatistics returns the number of items per category
func (r *Result) GetStatistics() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int, len(r.groups))
	for category, group := range r.groups {
		out[category] = len(group)
	}
	return out
}

// Len returns the number of items
func (r *Result) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
