// Package browser abstracts a scriptable browsing engine behind a small
// capability interface: launch a session, navigate, evaluate, close.
package browser

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"vidlink/internal/metrics"
)

// WaitEvent names the document lifecycle event navigation waits for.
type WaitEvent string

const (
	// DOMContentLoaded waits only for the initial document to be parsed.
	DOMContentLoaded WaitEvent = "domcontentloaded"
	// Load waits for the full load event.
	Load WaitEvent = "load"
)

// NavigateOptions controls a single navigation.
type NavigateOptions struct {
	WaitUntil WaitEvent
	Timeout   time.Duration
	Referer   string
}

// Session is one isolated browsing context.
type Session interface {
	// Navigate loads url and waits for opts.WaitUntil or opts.Timeout.
	Navigate(ctx context.Context, url string, opts NavigateOptions) error
	// Evaluate runs a read-only script (a JS function expression returning
	// an array of strings) against the current document.
	Evaluate(ctx context.Context, script string) ([]string, error)
	// Close releases the session. It is safe to call more than once.
	Close() error
}

// Launcher opens sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// Limit bounds the number of concurrently open sessions from l to n.
// Launch blocks until a slot frees up or ctx is done.
func Limit(l Launcher, n int64, m *metrics.Recorder) Launcher {
	if n <= 0 {
		n = 1
	}
	return &limited{next: l, sem: semaphore.NewWeighted(n), metrics: m}
}

type limited struct {
	next    Launcher
	sem     *semaphore.Weighted
	metrics *metrics.Recorder
}

func (l *limited) Launch(ctx context.Context) (Session, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	s, err := l.next.Launch(ctx)
	if err != nil {
		l.sem.Release(1)
		return nil, err
	}
	l.metrics.SessionOpened()
	return &limitedSession{Session: s, release: func() {
		l.metrics.SessionClosed()
		l.sem.Release(1)
	}}, nil
}

type limitedSession struct {
	Session
	once    sync.Once
	release func()
}

func (s *limitedSession) Close() error {
	err := s.Session.Close()
	s.once.Do(s.release)
	return err
}
