// Package extract resolves a source page into its player link and the HLS
// manifests that player serves, first with plain HTTP and then, if needed,
// with a headless browser.
package extract

import (
	"context"
	"time"

	"github.com/morikuni/failure/v2"
	"github.com/sirupsen/logrus"

	"vidlink/internal/browser"
	"vidlink/internal/collector"
	"vidlink/internal/httputil"
	"vidlink/internal/manifest"
	"vidlink/internal/media"
	"vidlink/internal/metrics"
)

// Short-circuit policies deciding when the browser stage can be skipped.
const (
	// ShortCircuitAny skips the browser once a master link can be chosen,
	// which includes the first-candidate fallback. This is the default.
	ShortCircuitAny = "any"
	// ShortCircuitMaster skips the browser only once a master.m3u8 candidate exists.
	ShortCircuitMaster = "master"
)

// Options configures an Extractor.
type Options struct {
	// MaxRetries is the number of extra source fetch attempts. Negative is treated as zero.
	MaxRetries   int
	ShortCircuit string
	// ExtraMarkers are CDN markers accepted as manifests besides ".m3u8".
	ExtraMarkers []string
	Dynamic      DynamicOptions
	Metrics      *metrics.Recorder
	// Now defaults to time.Now.
	Now func() time.Time
}

// Extractor runs one extraction. It holds per-call state and must not be
// shared between concurrent requests.
type Extractor struct {
	collector *collector.Collector
	static    *StaticResolver
	dynamic   *DynamicResolver
	opts      Options
}

// New builds an Extractor. A nil launcher disables the browser stage.
func New(f Fetcher, l browser.Launcher, opts Options) *Extractor {
	if opts.ShortCircuit == "" {
		opts.ShortCircuit = ShortCircuitAny
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	c := collector.New(manifest.NewFilter(opts.ExtraMarkers...))
	e := &Extractor{
		collector: c,
		static:    NewStaticResolver(f, c),
		opts:      opts,
	}
	if l != nil {
		e.dynamic = NewDynamicResolver(l, c, opts.Dynamic)
	}
	return e
}

// ValidateSource rejects source URLs that could never be fetched.
func ValidateSource(source string) error {
	if err := httputil.ValidateURL(source); err != nil {
		return failure.Translate(err, ErrInvalidURL, failure.Context{"source": source})
	}
	return nil
}

// Extract resolves source. Finding nothing is a normal result with both
// links nil. An error is returned only when ctx ends before any attempt
// completes.
func (e *Extractor) Extract(ctx context.Context, source string) (media.Result, error) {
	log := logrus.WithField("source", source)

	var (
		res     StaticResult
		started time.Time
		err     error
	)
	for attempt := 0; attempt <= e.opts.MaxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.opts.Metrics.Extraction(metrics.Failed, 0)
			return media.Result{}, failure.Wrap(ctxErr, failure.Context{"source": source})
		}

		started = time.Now()
		e.opts.Metrics.SourceAttempt()
		res, err = e.static.Resolve(ctx, source)
		if err == nil {
			break
		}
		log.WithError(err).WithField("attempt", attempt+1).Warn("source fetch failed")
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.opts.Metrics.Extraction(metrics.Failed, 0)
			return media.Result{}, failure.Wrap(ctxErr, failure.Context{"source": source})
		}
		log.WithField("attempts", e.opts.MaxRetries+1).Error("giving up on source")
		e.opts.Metrics.Extraction(metrics.Failed, 0)
		return media.NewResult("", "", 0, e.opts.Now()), nil
	}

	if res.PlayerLink != "" && !e.shortCircuit(source) {
		if e.dynamic == nil {
			log.Debug("browser stage disabled")
		} else {
			outcome := e.dynamic.Resolve(ctx, source, res.PlayerLink)
			e.opts.Metrics.Dynamic(outcome.String())
		}
	}

	elapsed := time.Since(started)
	master, _ := e.collector.MasterLinkFor(source)
	player, _ := e.collector.PlayerLinkFor(source)
	result := media.NewResult(master, player, elapsed, e.opts.Now())

	outcome := metrics.Found
	if result.Empty() {
		outcome = metrics.NotFound
	}
	e.opts.Metrics.Extraction(outcome, elapsed)
	log.WithFields(logrus.Fields{
		"master":   master,
		"player":   player,
		"duration": result.Duration,
	}).Info("extraction finished")

	return result, nil
}

// Candidates returns every manifest recorded for source so far.
func (e *Extractor) Candidates(source string) []string {
	return e.collector.Candidates(source)
}

func (e *Extractor) shortCircuit(source string) bool {
	if e.opts.ShortCircuit == ShortCircuitMaster {
		return e.collector.HasMasterGrade(source)
	}
	_, ok := e.collector.MasterLinkFor(source)
	return ok
}
