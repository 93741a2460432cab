// Package collector accumulates manifest candidates and player links per
// source URL for the lifetime of a single extraction.
package collector

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"vidlink/internal/manifest"
)

// candidateSet is an insertion-ordered set of manifest URLs.
type candidateSet = orderedmap.OrderedMap[string, struct{}]

// Collector is an append-only store of candidate manifest URLs and player
// links, keyed by source URL. A Collector must not outlive one extraction.
type Collector struct {
	filter manifest.Filter

	mu      sync.Mutex
	found   map[string]*candidateSet
	players map[string]string
}

// New creates an empty Collector that accepts URLs passing filter.
func New(filter manifest.Filter) *Collector {
	return &Collector{
		filter:  filter,
		found:   make(map[string]*candidateSet),
		players: make(map[string]string),
	}
}

// Record adds candidate to the set for source. URLs that are not
// manifest-shaped are ignored, and re-recording a URL is a no-op.
// It reports whether the candidate was newly added.
func (c *Collector) Record(source, candidate string) bool {
	if !c.filter.Match(candidate) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := c.found[source]
	if !ok {
		set = orderedmap.New[string, struct{}]()
		c.found[source] = set
	}
	_, present := set.Set(candidate, struct{}{})
	return !present
}

// Candidates returns the recorded candidates for source in insertion order.
func (c *Collector) Candidates(source string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := c.found[source]
	if !ok {
		return nil
	}
	out := make([]string, 0, set.Len())
	for p := set.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}

// MasterLinkFor returns the first recorded candidate containing
// "master.m3u8", falling back to the first candidate recorded at all.
func (c *Collector) MasterLinkFor(source string) (string, bool) {
	candidates := c.Candidates(source)
	if len(candidates) == 0 {
		return "", false
	}
	for _, u := range candidates {
		if manifest.IsMaster(u) {
			return u, true
		}
	}
	return candidates[0], true
}

// HasMasterGrade reports whether any candidate for source is a master playlist.
func (c *Collector) HasMasterGrade(source string) bool {
	for _, u := range c.Candidates(source) {
		if manifest.IsMaster(u) {
			return true
		}
	}
	return false
}

// SetPlayerLink records the player link for source. The first link wins.
func (c *Collector) SetPlayerLink(source, link string) {
	if link == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.players[source]; !ok {
		c.players[source] = link
	}
}

// PlayerLinkFor returns the player link recorded for source.
func (c *Collector) PlayerLinkFor(source string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	link, ok := c.players[source]
	return link, ok
}
