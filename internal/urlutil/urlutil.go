package urlutil

import (
	"net"
	"net/url"
	"strings"
)

var homepagePaths = map[string]bool{
	"/":           true,
	"":            true,
	"/index.html": true,
	"/index.htm":  true,
	"/home":       true,
	"/home/":      true,
}

// IsWebURL reports whether raw is an absolute http or https URL with a host
func IsWebURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// Hostname returns the lower-cased host of raw without port, or "" if unparseable
func Hostname(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// RegistrableDomain approximates the effective domain as the last two labels of host
func RegistrableDomain(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")

	if net.ParseIP(host) != nil {
		return host
	}

	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// IsHomepage reports whether raw points at a site's root-like page
func IsHomepage(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if u.RawQuery != "" || u.Fragment != "" || u.ForceQuery {
		return false
	}
	return homepagePaths[strings.ToLower(u.Path)]
}
