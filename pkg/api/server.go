// Package api serves stored skeletons and dendrograms over HTTP.
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"reneu/pkg/config"
)

const (
	defaultRequestTimeout = 5 * time.Second
	shutdownTimeout       = 10 * time.Second
)

// NewServer creates an HTTP server with all routes and middleware.
func NewServer(cfg config.Server, handlers *Handlers) *http.Server {
	mux := http.NewServeMux()

	// Concurrency limiter.
	sem := make(chan struct{}, max(cfg.MaxConcurrent, 1))
	wrap := func(h http.HandlerFunc) http.HandlerFunc { return withMiddleware(h, sem, cfg) }

	mux.HandleFunc("GET /api/v1/health", wrap(handlers.HandleHealth))
	mux.HandleFunc("GET /api/v1/stats", wrap(handlers.HandleStats))

	mux.HandleFunc("GET /api/v1/skeletons/{id}", wrap(handlers.HandleGetSkeleton))
	mux.HandleFunc("PUT /api/v1/skeletons/{id}", wrap(handlers.HandlePutSkeleton))
	mux.HandleFunc("DELETE /api/v1/skeletons/{id}", wrap(handlers.HandleDeleteSkeleton))
	mux.HandleFunc("GET /api/v1/skeletons/{id}/swc", wrap(handlers.HandleGetSWC))
	mux.HandleFunc("GET /api/v1/skeletons/{id}/info", wrap(handlers.HandleSkeletonInfo))
	mux.HandleFunc("POST /api/v1/skeletons/{id}/snap", wrap(handlers.HandleSnap))

	mux.HandleFunc("GET /api/v1/dendrograms/{name}", wrap(handlers.HandleGetDendrogram))
	mux.HandleFunc("PUT /api/v1/dendrograms/{name}", wrap(handlers.HandlePutDendrogram))

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// ListenAndServe starts the server and blocks until ctx is done, then shuts
// it down gracefully.
func ListenAndServe(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down", "cause", context.Cause(ctx))
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return err
		}
		if err := <-errCh; !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// statusRecorder captures the status written by a handler for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withMiddleware wraps a handler with logging, recovery, security headers,
// and concurrency limiting.
func withMiddleware(handler http.HandlerFunc, sem chan struct{}, cfg config.Server) http.HandlerFunc {
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return func(w http.ResponseWriter, r *http.Request) {
		// Security headers.
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")

		// CORS.
		if cfg.CORSOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSOrigin)
		}

		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
		default:
			w.Header().Set("Retry-After", "1")
			http.Error(w, `{"error":"service_unavailable"}`, http.StatusServiceUnavailable)
			return
		}

		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic", "recovered", rec, "path", r.URL.Path)
				http.Error(w, `{"error":"internal_error"}`, http.StatusInternalServerError)
			}
		}()

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		handler(rec, r.WithContext(ctx))
		log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status,
			"elapsed", time.Since(start).Round(time.Microsecond))
	}
}
