package urlutil

import (
	"net/url"
	"strings"
)

// Features describes the structure of a URL, used when page content is unreliable
type Features struct {
	FullURL      string
	Domain       string // host without scheme, lower-cased
	MainDomain   string // registrable domain
	Subdomain    string
	Path         string
	PathSegments []string // segments longer than two characters
	QueryTokens  []string // key=value pairs
}

// Keywords returns subdomain, path segments and query tokens in that order
func (f Features) Keywords() []string {
	var keywords []string
	if f.Subdomain != "" {
		keywords = append(keywords, f.Subdomain)
	}
	keywords = append(keywords, f.PathSegments...)
	keywords = append(keywords, f.QueryTokens...)
	return keywords
}

// ExtractFeatures splits raw into the structural pieces a classifier can reason about
func ExtractFeatures(raw string) Features {
	features := Features{FullURL: raw}

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return features
	}

	features.Domain = strings.ToLower(u.Host)
	features.Path = strings.ToLower(u.Path)

	host := strings.ToLower(u.Hostname())
	features.MainDomain = RegistrableDomain(host)
	if host != features.MainDomain {
		features.Subdomain = strings.TrimSuffix(strings.TrimSuffix(host, features.MainDomain), ".")
	}

	for _, part := range strings.Split(features.Path, "/") {
		if len([]rune(part)) > 2 {
			features.PathSegments = append(features.PathSegments, part)
		}
	}

	query := strings.ToLower(u.RawQuery)
	if query != "" {
		for _, part := range strings.Split(query, "&") {
			if part != "" && strings.Contains(part, "=") {
				features.QueryTokens = append(features.QueryTokens, part)
			}
		}
	}

	return features
}
