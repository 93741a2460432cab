package cmd

import (
	"context"

	"github.com/sirupsen/logrus"

	"vidlink/internal/browser"
	"vidlink/internal/config"
	"vidlink/internal/extract"
	"vidlink/internal/httputil"
	"vidlink/internal/media"
	"vidlink/internal/metrics"
)

// pipeline holds the resources shared by every extraction: the HTTP
// connection pool and the browser. Extractors themselves are per call.
type pipeline struct {
	fetcher  *httputil.Fetcher
	rod      *browser.Rod
	launcher browser.Launcher
	opts     extract.Options
}

func newPipeline(c *config.Config, m *metrics.Recorder) *pipeline {
	p := &pipeline{
		fetcher: httputil.NewFetcher(httputil.Options{
			Timeout:      c.Fetch.Timeout,
			UserAgent:    c.Fetch.UserAgent,
			MaxBodyBytes: c.Fetch.MaxBodyBytes,
			LogTraffic:   logrus.IsLevelEnabled(logrus.DebugLevel),
		}),
		opts: extract.Options{
			MaxRetries:   c.Extract.MaxRetries,
			ShortCircuit: c.Extract.ShortCircuit,
			ExtraMarkers: c.Extract.ExtraMarkers,
			Dynamic: extract.DynamicOptions{
				NavTimeout:   c.Browser.NavTimeout,
				Settle:       c.Browser.Settle,
				StageTimeout: c.Browser.StageTimeout,
			},
			Metrics: m,
		},
	}

	if c.Browser.Enabled {
		p.rod = browser.NewRod(browser.RodOptions{
			Bin:       c.Browser.Bin,
			NoSandbox: c.Browser.NoSandbox,
			UserAgent: c.Fetch.UserAgent,
		})
		p.launcher = browser.Limit(p.rod, c.Browser.MaxSessions, m)
	}
	return p
}

// extractor returns a fresh Extractor so no state crosses requests.
func (p *pipeline) extractor() *extract.Extractor {
	return extract.New(p.fetcher, p.launcher, p.opts)
}

func (p *pipeline) Extract(ctx context.Context, source string) (media.Result, error) {
	return p.extractor().Extract(ctx, source)
}

func (p *pipeline) Close() {
	if p.rod == nil {
		return
	}
	if err := p.rod.Close(); err != nil {
		logrus.WithError(err).Warn("closing browser")
	}
}
