// Package manifest recognizes HLS manifest URLs in raw text.
// Everything here is pure: no network, no DOM.
package manifest

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

const (
	// Marker is the substring every manifest URL carries.
	Marker = ".m3u8"

	// MasterMarker identifies a master playlist.
	MasterMarker = "master.m3u8"
)

// urlPattern matches absolute http(s) URLs containing .m3u8, stopping at
// whitespace, quotes and angle brackets.
var urlPattern = regexp.MustCompile(`(?i)https?://[^\s"'<>]+?\.m3u8[^\s"'<>]*`)

// Scan returns the distinct manifest URLs found in text, in first-seen order.
func Scan(text string) []string {
	return lo.Uniq(urlPattern.FindAllString(text, -1))
}

// IsMaster reports whether u points at a master playlist.
func IsMaster(u string) bool {
	return strings.Contains(u, MasterMarker)
}

// Filter decides which URLs are accepted as manifest candidates.
type Filter struct {
	extra []string
}

// NewFilter returns a Filter accepting .m3u8 URLs plus any URL containing
// one of the extra markers (typically CDN host or path fragments).
func NewFilter(extra ...string) Filter {
	return Filter{extra: lo.Compact(extra)}
}

// Match reports whether u has the shape of a manifest URL.
func (f Filter) Match(u string) bool {
	if u == "" {
		return false
	}
	if strings.Contains(u, Marker) {
		return true
	}
	return lo.SomeBy(f.extra, func(m string) bool {
		return strings.Contains(u, m)
	})
}
