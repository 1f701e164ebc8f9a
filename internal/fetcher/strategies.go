package fetcher

import (
	"math/rand/v2"
	"net/http"
)

// userAgents is the rotation pool for the browser-like strategies
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Edge/120.0.0.0",
}

const mobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 14_7_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.2 Mobile/15E148 Safari/604.1"

// Strategy is one way of asking a server for a page
type Strategy struct {
	Name string
	// Delayed strategies wait a random interval before the request
	Delayed bool
	Headers func(defaultUserAgent string) http.Header
}

// DefaultStrategies returns the escalating strategy chain, in order
func DefaultStrategies() []Strategy {
	return []Strategy{
		{
			Name: "default",
			Headers: func(defaultUserAgent string) http.Header {
				h := http.Header{}
				h.Set("User-Agent", defaultUserAgent)
				return h
			},
		},
		{
			Name:    "rotating-headers",
			Headers: func(string) http.Header { return browserHeaders(randomUserAgent()) },
		},
		{
			Name:    "delayed",
			Delayed: true,
			Headers: func(string) http.Header {
				h := http.Header{}
				h.Set("User-Agent", randomUserAgent())
				h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
				h.Set("Accept-Language", "en-US,en;q=0.5")
				h.Set("Accept-Encoding", "gzip")
				h.Set("Connection", "keep-alive")
				return h
			},
		},
		{
			Name: "mobile",
			Headers: func(string) http.Header {
				h := http.Header{}
				h.Set("User-Agent", mobileUserAgent)
				h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
				h.Set("Accept-Language", "en-US,en;q=0.9")
				h.Set("Accept-Encoding", "gzip")
				h.Set("Cache-Control", "no-cache")
				h.Set("Pragma", "no-cache")
				return h
			},
		},
	}
}

// browserHeaders returns the header set a desktop browser would send
func browserHeaders(userAgent string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Accept-Encoding", "gzip")
	h.Set("DNT", "1")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}

func randomUserAgent() string {
	return userAgents[rand.IntN(len(userAgents))]
}
