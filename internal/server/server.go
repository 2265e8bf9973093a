// Package server exposes the route table over HTTP: an index page listing all
// configured projects with their build status, static file serving per
// project, and operational endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/dochost/internal/config"
	"git.home.luguber.info/inful/dochost/internal/history"
	"git.home.luguber.info/inful/dochost/internal/logfields"
	"git.home.luguber.info/inful/dochost/internal/metrics"
	"git.home.luguber.info/inful/dochost/internal/orchestrator"
	"git.home.luguber.info/inful/dochost/internal/project"
)

// Options carries optional server wiring.
type Options struct {
	History           *history.Store
	Recorder          metrics.Recorder
	PrometheusHandler http.Handler
}

// Server serves the documentation site. The route table and entries are
// immutable for the server's lifetime; only the status board changes when a
// periodic refresh runs.
type Server struct {
	cfg     *config.Config
	table   project.RouteTable
	entries []*project.Entry
	board   *orchestrator.StatusBoard
	opts    Options

	httpServer *http.Server
}

// New creates a Server over an orchestrated route table.
func New(cfg *config.Config, table project.RouteTable, entries []*project.Entry, board *orchestrator.StatusBoard, opts Options) *Server {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	return &Server{cfg: cfg, table: table, entries: entries, board: board, opts: opts}
}

// Handler builds the full request handler, exported for httptest use.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleHealth)
	if s.opts.PrometheusHandler != nil {
		mux.Handle("/metrics", s.opts.PrometheusHandler)
	}
	mux.HandleFunc("/", s.handleRoot)
	return s.withMiddleware(mux)
}

// Start binds the listener and serves until ctx is canceled, then shuts down
// gracefully: the listener stops accepting and in-flight reads complete.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Serving documentation", slog.String("addr", addr), slog.Int("projects", len(s.entries)))
		if serr := s.httpServer.Serve(ln); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-errCh
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// handleRoot dispatches "/" to the index page and everything else to the
// owning project's documentation tree.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Path == "/" {
		s.handleIndex(w, r)
		return
	}

	route, rest, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	docsDir, ok := s.table[route]
	if !ok {
		http.NotFound(w, r)
		return
	}

	// /{route} without trailing slash: redirect so relative links inside the
	// generated documentation resolve.
	if rest == "" && !strings.HasSuffix(r.URL.Path, "/") {
		http.Redirect(w, r, "/"+route+"/", http.StatusFound)
		return
	}

	s.serveDocs(w, r, route, docsDir, rest)
}

func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("HTTP handler panic",
					slog.Any("panic", rec),
					logfields.Method(r.Method),
					logfields.Path(r.URL.Path))
				http.Error(wrapped, "internal server error", http.StatusInternalServerError)
			}
			s.opts.Recorder.IncHTTPRequest(wrapped.statusCode)
			slog.Info("HTTP request",
				logfields.Method(r.Method),
				logfields.Path(r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)))
		}()

		next.ServeHTTP(wrapped, r)
	})
}

// responseWriter captures status codes for logging and metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	wrote      bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wrote {
		rw.statusCode = code
		rw.wrote = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wrote = true
	return rw.ResponseWriter.Write(b)
}
