package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/morikuni/failure/v2"
	"github.com/sirupsen/logrus"
)

// ErrBrowser marks failures of the browsing engine itself.
const ErrBrowser ErrorCode = "BrowserError"

// ErrorCode defines error types for browser operations.
type ErrorCode string

// RodOptions configures the Chromium process.
type RodOptions struct {
	// Bin is the Chromium binary. Empty lets rod find or download one.
	Bin       string
	NoSandbox bool
	UserAgent string
}

// Rod launches sessions in a single lazily started headless Chromium.
// Each session gets its own incognito browser context.
type Rod struct {
	opts  RodOptions
	start func() (*launcher.Launcher, *rod.Browser, error)

	mu       sync.Mutex
	pending  *startup
	launcher *launcher.Launcher
	browser  *rod.Browser
	closed   bool
}

// startup is one in-flight Chromium start shared by every waiter.
type startup struct {
	done    chan struct{}
	browser *rod.Browser
	err     error
}

// NewRod returns a Rod launcher. Chromium starts on the first Launch.
func NewRod(opts RodOptions) *Rod {
	r := &Rod{opts: opts}
	r.start = r.startChromium
	return r
}

func (r *Rod) startChromium() (*launcher.Launcher, *rod.Browser, error) {
	l := launcher.New().
		Headless(true).
		NoSandbox(r.opts.NoSandbox).
		Devtools(false).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("mute-audio")
	if r.opts.Bin != "" {
		l = l.Bin(r.opts.Bin)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, nil, failure.Translate(err, ErrBrowser, failure.Message("failed to launch browser"))
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, nil, failure.Translate(err, ErrBrowser, failure.Message("failed to connect to browser"))
	}

	logrus.WithField("control_url", u).Debug("browser started")
	return l, b, nil
}

// connect returns the running browser, starting it if needed. The start
// runs detached from ctx so the process outlives the request that
// triggered it; ctx only bounds how long this caller waits.
func (r *Rod) connect(ctx context.Context) (*rod.Browser, error) {
	r.mu.Lock()
	if r.browser != nil {
		b := r.browser
		r.mu.Unlock()
		return b, nil
	}
	if r.closed {
		r.mu.Unlock()
		return nil, failure.New(ErrBrowser, failure.Message("browser is closed"))
	}
	s := r.pending
	if s == nil {
		s = &startup{done: make(chan struct{})}
		r.pending = s
		go r.run(s)
	}
	r.mu.Unlock()

	select {
	case <-s.done:
	case <-ctx.Done():
		return nil, failure.Translate(ctx.Err(), ErrBrowser, failure.Message("waiting for browser to start"))
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.browser, nil
}

func (r *Rod) run(s *startup) {
	l, b, err := r.start()

	r.mu.Lock()
	r.pending = nil
	if err == nil && r.closed {
		shutdown(l, b)
		b, err = nil, failure.New(ErrBrowser, failure.Message("browser closed during startup"))
	}
	if err == nil {
		r.launcher, r.browser = l, b
	}
	s.browser, s.err = b, err
	r.mu.Unlock()

	close(s.done)
}

// Launch opens an isolated incognito session.
func (r *Rod) Launch(ctx context.Context) (Session, error) {
	b, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	incognito, err := b.Context(ctx).Incognito()
	if err != nil {
		return nil, failure.Translate(err, ErrBrowser, failure.Message("failed to create browser context"))
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		dispose(incognito)
		return nil, failure.Translate(err, ErrBrowser, failure.Message("failed to open page"))
	}

	if r.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.opts.UserAgent}); err != nil {
			dispose(incognito)
			return nil, failure.Translate(err, ErrBrowser, failure.Message("failed to set user agent"))
		}
	}

	return &rodSession{incognito: incognito, page: page}, nil
}

// Close shuts Chromium down. Sessions still open become unusable, and a
// start still in progress is torn down when it finishes.
func (r *Rod) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	if r.browser == nil {
		return nil
	}
	err := shutdown(r.launcher, r.browser)
	r.browser, r.launcher = nil, nil
	return err
}

func shutdown(l *launcher.Launcher, b *rod.Browser) error {
	var err error
	if b != nil {
		err = b.Close()
	}
	if l != nil {
		l.Kill()
		l.Cleanup()
	}
	return err
}

type rodSession struct {
	incognito *rod.Browser
	page      *rod.Page
	once      sync.Once
}

func (s *rodSession) Navigate(ctx context.Context, url string, opts NavigateOptions) error {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	p := s.page.Context(ctx)

	if opts.Referer != "" {
		if _, err := p.SetExtraHeaders([]string{"Referer", opts.Referer}); err != nil {
			return failure.Translate(err, ErrBrowser, failure.Message("failed to set referer"))
		}
	}

	wait := p.WaitNavigation(lifecycleEvent(opts.WaitUntil))
	if err := p.Navigate(url); err != nil {
		return failure.Translate(err, ErrBrowser, failure.Context{"url": url})
	}
	wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("waiting for %s: %w", opts.WaitUntil, err)
	}
	return nil
}

func (s *rodSession) Evaluate(ctx context.Context, script string) ([]string, error) {
	res, err := s.page.Context(ctx).Eval(script)
	if err != nil {
		return nil, failure.Translate(err, ErrBrowser, failure.Message("script evaluation failed"))
	}

	var out []string
	for _, v := range res.Value.Arr() {
		out = append(out, v.Str())
	}
	return out, nil
}

func (s *rodSession) Close() error {
	var err error
	s.once.Do(func() {
		err = dispose(s.incognito)
	})
	return err
}

// dispose closes an incognito context on a fresh deadline, since the
// caller's context has often expired by the time cleanup runs.
func dispose(b *rod.Browser) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return b.Context(ctx).Close()
}

func lifecycleEvent(w WaitEvent) proto.PageLifecycleEventName {
	if w == Load {
		return proto.PageLifecycleEventNameLoad
	}
	return proto.PageLifecycleEventNameDOMContentLoaded
}
