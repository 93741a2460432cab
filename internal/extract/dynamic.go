package extract

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"vidlink/internal/browser"
	"vidlink/internal/collector"
	"vidlink/internal/httputil"
	"vidlink/internal/media"
)

// inspectScript collects every attribute value mentioning .m3u8 and every
// manifest URL found in inline script text. It must not mutate the page.
const inspectScript = `() => {
	const out = [];
	const re = /https?:\/\/[^\s"'<>]+?\.m3u8[^\s"'<>]*/gi;
	for (const el of document.querySelectorAll("*")) {
		for (const attr of el.attributes) {
			if (attr.value && attr.value.includes(".m3u8")) {
				out.push(attr.value);
			}
		}
	}
	for (const s of document.querySelectorAll("script")) {
		const found = (s.textContent || "").match(re);
		if (found) {
			out.push(...found);
		}
	}
	return [...new Set(out)];
}`

// DynamicOptions bounds the browser stage.
type DynamicOptions struct {
	NavTimeout   time.Duration
	Settle       time.Duration
	StageTimeout time.Duration
}

// DynamicResolver loads the player page in a real browser and inspects the
// rendered DOM for manifests that only appear after scripts run.
type DynamicResolver struct {
	launcher  browser.Launcher
	collector *collector.Collector
	opts      DynamicOptions
}

// NewDynamicResolver returns a resolver that opens sessions from l and records into c.
func NewDynamicResolver(l browser.Launcher, c *collector.Collector, opts DynamicOptions) *DynamicResolver {
	return &DynamicResolver{launcher: l, collector: c, opts: opts}
}

// Resolve never returns an error. Failures are logged and reported
// through the outcome.
func (d *DynamicResolver) Resolve(ctx context.Context, source, player string) media.Outcome {
	if d.opts.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.StageTimeout)
		defer cancel()
	}

	log := logrus.WithFields(logrus.Fields{"source": source, "player": player, "stage": "dynamic"})

	if err := httputil.ValidateURL(player); err != nil {
		log.WithError(err).Warn("refusing to open player link in browser")
		return media.Failed
	}

	session, err := d.launcher.Launch(ctx)
	if err != nil {
		log.WithError(err).Warn("browser session unavailable")
		return media.Failed
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.WithError(err).Debug("closing browser session")
		}
	}()

	outcome := media.OK
	err = session.Navigate(ctx, player, browser.NavigateOptions{
		WaitUntil: browser.DOMContentLoaded,
		Timeout:   d.opts.NavTimeout,
		Referer:   source,
	})
	if err != nil {
		// Inspect whatever loaded anyway.
		log.WithError(err).Info("navigation did not complete")
		outcome = media.Degraded
	}

	if d.opts.Settle > 0 {
		t := time.NewTimer(d.opts.Settle)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			log.WithError(ctx.Err()).Info("settle interrupted")
			return media.Failed
		}
	}

	found, err := session.Evaluate(ctx, inspectScript)
	if err != nil {
		log.WithError(err).Warn("page inspection failed")
		return media.Failed
	}

	added := 0
	for _, u := range found {
		if d.collector.Record(source, u) {
			added++
		}
	}
	log.WithFields(logrus.Fields{"returned": len(found), "added": added}).Debug("page inspected")

	return outcome
}
