// Package httpapi exposes the validator over HTTP: a JSON batch endpoint, a
// Server-Sent Events stream endpoint and cache statistics.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/optimode/bulkverify"
	"github.com/optimode/bulkverify/internal/logging"
)

// RunIDHeader carries the per-request run identifier.
const RunIDHeader = "X-Run-ID"

// Service is the part of the validator the API calls.
type Service interface {
	ValidateBatch(ctx context.Context, addresses []string, filterDuplicates bool) (bulkverify.BatchResult, error)
	ValidateStream(ctx context.Context, addresses []string, filterDuplicates bool) (<-chan bulkverify.StreamEvent, error)
	CacheStats(ctx context.Context) bulkverify.CacheStats
}

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	// MaxBodyBytes limits request bodies. Default: 4 MiB
	MaxBodyBytes int64
}

type api struct {
	svc     Service
	opts    Options
	logger  *slog.Logger
	started time.Time
}

type runIDKey struct{}

// RunID returns the run identifier stored on ctx by the router.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// NewRouter builds the HTTP handler.
func NewRouter(svc Service, opts Options, logger *slog.Logger) http.Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 4 << 20
	}
	a := &api{svc: svc, opts: opts, logger: logging.OrDiscard(logger), started: time.Now()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.runID)
	r.Use(middleware.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "Last-Event-ID"},
			ExposedHeaders: []string{RunIDHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", a.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/validate", a.validate)
		r.Post("/validate/stream", a.stream)
		r.Get("/cache/stats", a.cacheStats)
	})
	return r
}

// runID tags every request with a fresh uuid and logs its outcome.
func (a *api) runID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(RunIDHeader, id)
		ctx := context.WithValue(r.Context(), runIDKey{}, id)

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		a.logger.Info("request",
			"run_id", id,
			"request_id", middleware.GetReqID(ctx),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}
