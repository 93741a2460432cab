package extract

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/morikuni/failure/v2"
	"github.com/sirupsen/logrus"

	"vidlink/internal/collector"
	"vidlink/internal/manifest"
	"vidlink/internal/media"
)

// Fetcher retrieves a page body. Non-2xx responses are errors.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) (string, error)
}

// StaticResult is what the static pass learned about a source page.
type StaticResult struct {
	PlayerLink string
	Outcome    media.Outcome
}

// StaticResolver finds the player link with plain HTTP and scans the
// player page for manifests.
type StaticResolver struct {
	fetcher   Fetcher
	collector *collector.Collector
}

// NewStaticResolver returns a resolver that records into c.
func NewStaticResolver(f Fetcher, c *collector.Collector) *StaticResolver {
	return &StaticResolver{fetcher: f, collector: c}
}

// Resolve fetches source and, if it carries a player link, the player page.
// Only a failed source fetch is returned as an error.
func (s *StaticResolver) Resolve(ctx context.Context, source string) (StaticResult, error) {
	body, err := s.fetcher.Fetch(ctx, source, nil)
	if err != nil {
		return StaticResult{}, failure.Translate(err, ErrSourceFetch, failure.Context{"source": source})
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		// The HTML parser is lenient; this only happens on reader errors.
		return StaticResult{Outcome: media.OK}, nil
	}

	ref := parsePlayerLink(doc)
	if ref == "" {
		logrus.WithField("source", source).Debug("no player link on source page")
		return StaticResult{Outcome: media.OK}, nil
	}

	player := resolveRef(source, ref)
	s.collector.SetPlayerLink(source, player)
	log := logrus.WithFields(logrus.Fields{"source": source, "player": player})
	log.Debug("player link found")

	page, err := s.fetcher.Fetch(ctx, player, map[string]string{"Referer": source})
	if err != nil {
		err = failure.Translate(err, ErrPlayerFetch, failure.Context{"player": player})
		log.WithError(err).Warn("player page fetch failed")
		return StaticResult{PlayerLink: player, Outcome: media.Degraded}, nil
	}

	for _, u := range manifest.Scan(page) {
		s.collector.Record(source, u)
	}
	log.WithField("candidates", len(s.collector.Candidates(source))).Debug("player page scanned")

	return StaticResult{PlayerLink: player, Outcome: media.OK}, nil
}
