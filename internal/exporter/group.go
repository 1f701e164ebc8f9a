package exporter

import (
	"bookmark-organizer/internal/model"
	"bookmark-organizer/internal/urlutil"

	"github.com/sirupsen/logrus"
)

// DomainGroup holds the bookmarks of one registrable domain
type DomainGroup struct {
	Domain   string
	Category string
	Home     *model.ClassifiedBookmark
	Pages    []model.ClassifiedBookmark
}

// Len returns the number of bookmarks in the group
func (g DomainGroup) Len() int {
	n := len(g.Pages)
	if g.Home != nil {
		n++
	}
	return n
}

// Title names the folder a multi-entry group renders as
func (g DomainGroup) Title() string {
	if g.Home != nil {
		return g.Home.Name
	}
	return g.Domain
}

// Items returns the home entry first, then the sub-pages
func (g DomainGroup) Items() []model.ClassifiedBookmark {
	items := make([]model.ClassifiedBookmark, 0, g.Len())
	if g.Home != nil {
		items = append(items, *g.Home)
	}
	return append(items, g.Pages...)
}

// CategoryGroup is one output folder
type CategoryGroup struct {
	Category string
	Domains  []DomainGroup
}

// Len returns the number of bookmarks in the category
func (c CategoryGroup) Len() int {
	n := 0
	for _, d := range c.Domains {
		n += d.Len()
	}
	return n
}

// Group arranges items by registrable domain and then by category. A
// domain's category is its homepage's category, or else the most frequent
// category among its pages with ties going to the first seen.
func Group(items []model.ClassifiedBookmark) []CategoryGroup {
	var domainOrder []string
	domains := make(map[string]*DomainGroup)

	for _, item := range items {
		domain := urlutil.RegistrableDomain(urlutil.Hostname(item.URL))
		if domain == "" {
			domain = item.URL
		}

		group, ok := domains[domain]
		if !ok {
			group = &DomainGroup{Domain: domain}
			domains[domain] = group
			domainOrder = append(domainOrder, domain)
		}

		if group.Home == nil && urlutil.IsHomepage(item.URL) {
			home := item
			group.Home = &home
			continue
		}
		group.Pages = append(group.Pages, item)
	}

	var categoryOrder []string
	categories := make(map[string]*CategoryGroup)

	for _, domain := range domainOrder {
		group := domains[domain]
		group.Category = attributeCategory(*group)

		cg, ok := categories[group.Category]
		if !ok {
			cg = &CategoryGroup{Category: group.Category}
			categories[group.Category] = cg
			categoryOrder = append(categoryOrder, group.Category)
		}
		cg.Domains = append(cg.Domains, *group)
	}

	out := make([]CategoryGroup, 0, len(categoryOrder))
	for _, category := range categoryOrder {
		out = append(out, *categories[category])
	}

	logrus.WithFields(logrus.Fields{
		"items":      len(items),
		"domains":    len(domainOrder),
		"categories": len(out),
	}).Debug("Grouped classified bookmarks")

	return out
}

func attributeCategory(g DomainGroup) string {
	if g.Home != nil {
		return g.Home.Category
	}

	counts := make(map[string]int)
	best, bestCount := "", 0
	for _, page := range g.Pages {
		counts[page.Category]++
	}
	// first seen wins ties, so scan in page order
	for _, page := range g.Pages {
		if counts[page.Category] > bestCount {
			best, bestCount = page.Category, counts[page.Category]
		}
	}
	return best
}
