// Package server exposes extraction over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"vidlink/internal/media"
	"vidlink/internal/metrics"
)

const indexHTML = `
    <h1>Video Link Extractor API</h1>
    <p>Use the /api/extract endpoint with a 'url' query parameter.</p>
    <p>Example: <a href="/api/extract?url=https://example.com">/api/extract?url=https://example.com</a></p>
`

// ExtractFunc runs one extraction. Each call must use its own extractor state.
type ExtractFunc func(ctx context.Context, source string) (media.Result, error)

// Options configures the HTTP surface.
type Options struct {
	// RequestTimeout bounds each extraction. Zero means no extra deadline.
	RequestTimeout time.Duration
	Metrics        *metrics.Recorder
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type notFoundResponse struct {
	Message string `json:"message"`
	Source  string `json:"source"`
	media.Result
}

// New builds the router.
func New(extract ExtractFunc, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(recoverJSON)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, indexHTML)
	})

	r.Get("/api/extract", func(w http.ResponseWriter, req *http.Request) {
		source := req.URL.Query().Get("url")
		if source == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "URL query parameter is required."})
			return
		}

		ctx := req.Context()
		if opts.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, opts.RequestTimeout)
			defer cancel()
		}

		result, err := extract(ctx, source)
		if err != nil {
			logrus.WithError(err).WithField("source", source).Error("extraction failed")
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error:   "Failed to extract video links.",
				Details: err.Error(),
			})
			return
		}

		if result.Empty() {
			writeJSON(w, http.StatusNotFound, notFoundResponse{
				Message: "No video links found.",
				Source:  source,
				Result:  result,
			})
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Debug("writing response")
	}
}

// recoverJSON turns a panic into the same 500 body an extraction error gets.
func recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logrus.WithFields(logrus.Fields{
				"panic":      rec,
				"request_id": middleware.GetReqID(r.Context()),
			}).Error("handler panicked")
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error:   "Failed to extract video links.",
				Details: fmt.Sprint(rec),
			})
		}()
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logrus.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("request")
	})
}
