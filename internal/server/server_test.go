package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"vidlink/internal/media"
	"vidlink/internal/metrics"
)

var stamp = time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local)

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, body
}

func TestIndex(t *testing.T) {
	h := New(nil, Options{})
	rec, _ := get(t, h, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/api/extract") {
		t.Errorf("index should mention /api/extract:\n%s", rec.Body.String())
	}
}

func TestExtractMissingURL(t *testing.T) {
	called := false
	h := New(func(context.Context, string) (media.Result, error) {
		called = true
		return media.Result{}, nil
	}, Options{})

	for _, target := range []string{"/api/extract", "/api/extract?url="} {
		rec, body := get(t, h, target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", target, rec.Code)
		}
		if diff := cmp.Diff(map[string]any{"error": "URL query parameter is required."}, body); diff != "" {
			t.Errorf("GET %s body mismatch (-want +got):\n%s", target, diff)
		}
	}
	if called {
		t.Error("extractor should not run without a url")
	}
}

func TestExtractFound(t *testing.T) {
	var gotSource string
	h := New(func(_ context.Context, source string) (media.Result, error) {
		gotSource = source
		return media.NewResult("https://cdn.example/hls/master.m3u8", "https://p.example/e/1", 1234*time.Millisecond, stamp), nil
	}, Options{})

	rec, body := get(t, h, "/api/extract?url=https%3A%2F%2Fsrc.example%2Fwatch%3Fid%3D1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotSource != "https://src.example/watch?id=1" {
		t.Errorf("source = %q, want decoded query value", gotSource)
	}

	want := map[string]any{
		"masterLink": "https://cdn.example/hls/master.m3u8",
		"plyrLink":   "https://p.example/e/1",
		"date":       "3/5/2024",
		"time":       "2:07:09 PM",
		"duration":   "1.23 seconds",
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractPlayerOnlyIsFound(t *testing.T) {
	h := New(func(context.Context, string) (media.Result, error) {
		return media.NewResult("", "https://p.example/e/1", time.Second, stamp), nil
	}, Options{})

	rec, body := get(t, h, "/api/extract?url=https://src.example/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["masterLink"] != nil {
		t.Errorf("masterLink = %v, want null", body["masterLink"])
	}
}

func TestExtractNotFound(t *testing.T) {
	h := New(func(context.Context, string) (media.Result, error) {
		return media.NewResult("", "", 0, stamp), nil
	}, Options{})

	rec, body := get(t, h, "/api/extract?url=https://src.example/")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	want := map[string]any{
		"message":    "No video links found.",
		"source":     "https://src.example/",
		"masterLink": nil,
		"plyrLink":   nil,
		"date":       "3/5/2024",
		"time":       "2:07:09 PM",
		"duration":   "0.00 seconds",
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractError(t *testing.T) {
	h := New(func(context.Context, string) (media.Result, error) {
		return media.Result{}, errors.New("context deadline exceeded")
	}, Options{})

	rec, body := get(t, h, "/api/extract?url=https://src.example/")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	want := map[string]any{
		"error":   "Failed to extract video links.",
		"details": "context deadline exceeded",
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractPanic(t *testing.T) {
	h := New(func(context.Context, string) (media.Result, error) {
		panic("collector exploded")
	}, Options{})

	rec, body := get(t, h, "/api/extract?url=https://src.example/")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if body["details"] != "collector exploded" {
		t.Errorf("details = %v, want panic message", body["details"])
	}
}

func TestExtractRequestTimeout(t *testing.T) {
	h := New(func(ctx context.Context, _ string) (media.Result, error) {
		deadline, ok := ctx.Deadline()
		if !ok {
			t.Error("extraction context has no deadline")
		} else if time.Until(deadline) > time.Minute {
			t.Errorf("deadline %v is further out than the configured timeout", deadline)
		}
		<-ctx.Done()
		return media.Result{}, ctx.Err()
	}, Options{RequestTimeout: 20 * time.Millisecond})

	rec, _ := get(t, h, "/api/extract?url=https://src.example/")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	rec, body := get(t, New(nil, Options{}), "/healthz")
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("healthz = %d %v, want 200 ok", rec.Code, body)
	}
}

func TestMetricsRoute(t *testing.T) {
	m := metrics.New()
	m.SourceAttempt()

	rec, _ := get(t, New(nil, Options{Metrics: m}), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "vidlink_source_fetch_attempts_total 1") {
		t.Errorf("metrics output missing attempts counter:\n%s", rec.Body.String())
	}
}
