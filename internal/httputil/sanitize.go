package httputil

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL checks that a URL is absolute, has a host, and uses HTTP(S).
// Anything else (javascript:, data:, file:) is rejected before it reaches
// the network or the browser.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("only HTTP(S) URLs are allowed, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}
