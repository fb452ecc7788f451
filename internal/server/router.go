// Package server assembles the HTTP router: middleware chain, probes,
// metrics and the /api/books route table.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bookcatalog/internal/book"
	"bookcatalog/internal/httpx"
	"bookcatalog/internal/library"
)

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	MaxBodyBytes int64
	CORSOrigins  []string
	RateLimitRPM int
	EnableHSTS   bool
}

type Handlers struct {
	Books     *book.HTTPHandler
	Libraries *library.HTTPHandler
}

// NewRouter builds the application handler.
func NewRouter(h Handlers, db Pinger, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.AccessLogMiddleware)
	r.Use(httpx.RecoveryMiddleware)
	r.Use(httpx.SecurityHeadersMiddleware(opts.EnableHSTS))
	r.Use(httpx.RequestSizeLimitMiddleware(opts.MaxBodyBytes))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	r.NotFound(httpx.NotFound)
	r.MethodNotAllowed(httpx.MethodNotAllowed)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			httpx.JSONError(w, r, http.StatusServiceUnavailable, "NOT_READY", "Database not ready")
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/books", func(r chi.Router) {
		if opts.RateLimitRPM > 0 {
			r.Use(httprate.Limit(opts.RateLimitRPM, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					httpx.JSONError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
				}),
			))
		}

		r.Get("/all", h.Books.List)
		r.Get("/search", h.Books.Search)
		r.Get("/search/{term}", h.Books.Search)
		r.Get("/popular", h.Books.Popular)
		r.Get("/top", h.Books.Top)
		r.Get("/covers/{isbn}", h.Books.Cover)
		r.Get("/info/{isbn}", h.Books.Info)
		r.Get("/subject/{subject}", h.Books.Subject)
		r.Get("/trending", h.Books.Trending)
		r.Get("/trending/{window}", h.Books.Trending)
		r.Get("/library/{libraryID}/books", h.Books.ByLibrary)

		r.Get("/libraries", h.Libraries.List)
		r.Get("/location", h.Libraries.Location)
	})

	return r
}
