package fetcher

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"
)

// maxBodySize caps how much of a page is read for metadata extraction
const maxBodySize = 5 << 20

// retryableStatus lists the HTTP status codes worth another attempt
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// StatusError is returned when a server answered with a non-2xx status
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP request to %s failed with status %d: %s", e.URL, e.StatusCode, e.Status)
}

// HTTPClient fetches web pages with transport-level retries
type HTTPClient struct {
	client *retryablehttp.Client
}

// HTTPConfig holds configuration for the HTTP client
type HTTPConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// NewHTTPClient creates a new HTTP client with the specified configuration.
// Certificate verification is disabled so misconfigured sites still yield metadata.
func NewHTTPClient(config HTTPConfig) *HTTPClient {
	// Custom redirect policy to limit the number of redirects
	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if len(via) >= config.MaxRedirects {
			logrus.WithFields(logrus.Fields{
				"url":            req.URL.String(),
				"redirect_count": len(via),
				"max_redirects":  config.MaxRedirects,
			}).Debug("HTTP request exceeded maximum redirects")
			return fmt.Errorf("stopped after %d redirects", config.MaxRedirects)
		}
		return nil
	}

	transport := cleanhttp.DefaultPooledTransport()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec

	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{
		Transport:     transport,
		Timeout:       config.Timeout,
		CheckRedirect: redirectPolicy,
	}
	client.RetryMax = config.MaxRetries
	client.RetryWaitMin = config.RetryWaitMin
	client.RetryWaitMax = config.RetryWaitMax
	client.Backoff = cappedBackoff
	client.CheckRetry = retryPolicy
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = leveledLogger{entry: logrus.WithField("component", "retryablehttp")}

	logrus.WithFields(logrus.Fields{
		"timeout":       config.Timeout,
		"max_redirects": config.MaxRedirects,
		"max_retries":   config.MaxRetries,
	}).Debug("Created HTTP client for metadata fetching")

	return &HTTPClient{
		client: client,
	}
}

// retryPolicy retries transport errors and a fixed set of status codes
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	return retryableStatus[resp.StatusCode], nil
}

// cappedBackoff is exponential backoff that never waits longer than max,
// even when a server asks for a longer Retry-After
func cappedBackoff(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
	wait := retryablehttp.DefaultBackoff(min, max, attemptNum, resp)
	if wait > max {
		return max
	}
	return wait
}

// FetchPage fetches a web page with the given headers and returns its content as UTF-8
func (h *HTTPClient) FetchPage(ctx context.Context, url string, headers http.Header) (string, error) {
	logrus.WithField("url", url).Debug("Fetching web page")

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"url":   url,
			"error": err,
		}).Debug("HTTP request failed")
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logrus.WithFields(logrus.Fields{
			"url":         url,
			"status_code": resp.StatusCode,
			"status":      resp.Status,
		}).Debug("HTTP request returned non-2xx status")
		return "", &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	// Handle compressed content
	var reader io.Reader = resp.Body
	contentEncoding := resp.Header.Get("Content-Encoding")

	if strings.Contains(contentEncoding, "gzip") {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzipReader.Close()
		reader = gzipReader

		logrus.WithField("url", url).Debug("Decompressing gzip content")
	}

	contentType := resp.Header.Get("Content-Type")
	utf8Reader, err := charset.NewReader(io.LimitReader(reader, maxBodySize), contentType)
	if err != nil {
		return "", fmt.Errorf("failed to decode %q content: %w", contentType, err)
	}

	body, err := io.ReadAll(utf8Reader)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"url":              url,
		"status_code":      resp.StatusCode,
		"body_size":        len(body),
		"content_type":     contentType,
		"content_encoding": contentEncoding,
	}).Debug("Successfully fetched web page")

	return string(body), nil
}

// leveledLogger routes retryablehttp's logging into logrus at debug level;
// per-request failures are expected here and summarized by the fetcher.
type leveledLogger struct {
	entry *logrus.Entry
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).WithField("origin_level", "error").Debug(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).Debug(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).Trace(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).WithField("origin_level", "warn").Debug(msg)
}

func toFields(keysAndValues []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
