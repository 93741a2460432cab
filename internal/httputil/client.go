// Package httputil provides a hardened HTTP client and URL validation.
package httputil

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/motemen/go-loghttp"
	"github.com/sirupsen/logrus"
)

// DefaultUserAgent is a desktop Chrome user agent; many players refuse
// requests that do not look like a browser.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Options configures the client and fetcher.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	// LogTraffic logs every request and response at debug level.
	LogTraffic bool
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 10 * 1024 * 1024
	}
	return o
}

// NewClient creates a hardened HTTP client with secure defaults.
func NewClient(opts Options) *http.Client {
	opts = opts.withDefaults()

	var transport http.RoundTripper = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        10,
		IdleConnTimeout:     30 * time.Second,
		DisableCompression:  false,
		MaxIdleConnsPerHost: 5,
	}

	if opts.LogTraffic {
		transport = &loghttp.Transport{
			Transport: transport,
			LogRequest: func(req *http.Request) {
				logrus.WithFields(logrus.Fields{
					"method":  req.Method,
					"url":     req.URL.String(),
					"referer": req.Header.Get("Referer"),
				}).Debug("HTTP request")
			},
			LogResponse: func(resp *http.Response) {
				logrus.WithFields(logrus.Fields{
					"method": resp.Request.Method,
					"url":    resp.Request.URL.String(),
					"status": resp.StatusCode,
				}).Debug("HTTP response")
			},
		}
	}

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
	}
}

// Fetcher retrieves page bodies as text.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

// NewFetcher creates a Fetcher backed by a client built from opts.
func NewFetcher(opts Options) *Fetcher {
	opts = opts.withDefaults()
	return &Fetcher{
		client:    NewClient(opts),
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodyBytes,
	}
}

// Fetch performs a GET request with browser-like headers plus the given
// extra headers and returns the body. Non-2xx responses are errors.
func (f *Fetcher) Fetch(ctx context.Context, url string, headers map[string]string) (string, error) {
	if err := ValidateURL(url); err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	return string(body), nil
}
