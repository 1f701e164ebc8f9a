package model

import (
	"fmt"
	"strings"
)

// DefaultCategory is the fallback for labels outside the category set
const DefaultCategory = "Online-Tools"

// DefaultCategories is the category set of the reference deployment
var DefaultCategories = []string{
	"Programming",
	"AI",
	"VPN",
	"Online-Tools",
	"Entertainment",
	"E-commerce",
	"Vendor",
	"Social",
	"News",
	"Design",
}

// CategorySet is an immutable, ordered set of category labels with a fallback
type CategorySet struct {
	labels   []string
	index    map[string]string
	fallback string
}

// NewCategorySet builds a set from labels; fallback must be one of them
func NewCategorySet(labels []string, fallback string) (CategorySet, error) {
	set := CategorySet{
		labels:   make([]string, 0, len(labels)),
		index:    make(map[string]string, len(labels)),
		fallback: fallback,
	}

	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		if _, dup := set.index[strings.ToLower(label)]; dup {
			continue
		}
		set.index[strings.ToLower(label)] = label
		set.labels = append(set.labels, label)
	}

	if len(set.labels) == 0 {
		return CategorySet{}, fmt.Errorf("category set is empty")
	}
	if canonical, ok := set.index[strings.ToLower(fallback)]; !ok || canonical != fallback {
		return CategorySet{}, fmt.Errorf("default category %q is not in the category set", fallback)
	}

	return set, nil
}

// DefaultCategorySet returns the reference category set
func DefaultCategorySet() CategorySet {
	set, err := NewCategorySet(DefaultCategories, DefaultCategory)
	if err != nil {
		panic(err)
	}
	return set
}

// Contains reports whether label is exactly a member of the set
func (s CategorySet) Contains(label string) bool {
	canonical, ok := s.index[strings.ToLower(label)]
	return ok && canonical == label
}

// Clamp returns the canonical spelling of label if it names a member
// (case-insensitively), otherwise the fallback category. The second return
// value is true when the fallback was used.
func (s CategorySet) Clamp(label string) (string, bool) {
	if canonical, ok := s.index[strings.ToLower(strings.TrimSpace(label))]; ok {
		return canonical, false
	}
	return s.fallback, true
}

// Labels returns a copy of the labels in order
func (s CategorySet) Labels() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// Default returns the fallback category
func (s CategorySet) Default() string {
	return s.fallback
}

func (s CategorySet) String() string {
	return strings.Join(s.labels, ", ")
}
