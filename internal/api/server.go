// Package api serves scans, stored runs and polarisation maps over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/sympol2d/internal/db"
	"github.com/banshee-data/sympol2d/internal/material"
	"github.com/banshee-data/sympol2d/internal/monitoring"
	"github.com/banshee-data/sympol2d/internal/stacking"
)

// ANSI escape codes used by the request log.
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// Options wires a Server. Catalog is required; Results and Materials may
// be nil, which disables the routes that need them.
type Options struct {
	Catalog   *CatalogManager
	Scanner   *stacking.Scanner
	Results   *db.DB
	Materials *material.DB

	ScanTimeout time.Duration
	DefaultGrid int
	TopPairs    int
}

type Server struct {
	catalog   *CatalogManager
	scanner   *stacking.Scanner
	results   *db.DB
	materials *material.DB

	timeout     time.Duration
	defaultGrid int
	topPairs    int
}

func NewServer(opts Options) *Server {
	s := &Server{
		catalog:     opts.Catalog,
		scanner:     opts.Scanner,
		results:     opts.Results,
		materials:   opts.Materials,
		timeout:     opts.ScanTimeout,
		defaultGrid: opts.DefaultGrid,
		topPairs:    opts.TopPairs,
	}
	if s.scanner == nil {
		s.scanner = stacking.NewScanner(stacking.DefaultOptions())
	}
	if s.timeout <= 0 {
		s.timeout = 30 * time.Second
	}
	if s.defaultGrid <= 0 {
		s.defaultGrid = 50
	}
	return s
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux builds the route table. The /debug/ admin pages are mounted
// only when a results store is configured.
func (s *Server) ServeMux() (*http.ServeMux, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/scan", s.handleScan)
	mux.HandleFunc("/api/groups", s.handleGroups)
	mux.HandleFunc("/api/catalog", s.handleCatalog)
	mux.HandleFunc("/api/catalog/reload", s.handleCatalogReload)
	mux.HandleFunc("/api/materials", s.handleMaterials)
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/api/runs/{id}", s.handleRun)
	mux.HandleFunc("/api/runs/{id}/pairs", s.handleRunPairs)
	mux.HandleFunc("/charts/map", s.handleMapHTML)
	mux.HandleFunc("/charts/map.png", s.handleMapPNG)
	mux.Handle("/metrics", monitoring.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	if s.results != nil {
		if err := s.results.AttachAdminRoutes(mux); err != nil {
			return nil, err
		}
	}
	return mux, nil
}

// ListenAndServe runs the server on addr until ctx is cancelled, then
// shuts it down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux, err := s.ServeMux()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
