// Package api provides the HTTP server of CrisisSense.
//
// It exposes JSON endpoints for recording crisis resolutions and check-ins and for
// querying the risk engine: risk scores, pattern snapshots, vulnerable hours,
// personalized interventions and crisis-content classification.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BTreeMap/CrisisSense/internal/risk"
	"github.com/BTreeMap/CrisisSense/internal/store"
)

// Default server configuration
const (
	// DefaultServerAddress is the listen address used when none is configured.
	DefaultServerAddress = ":8080"
	// DefaultShutdownTimeout bounds how long in-flight requests may take after a shutdown signal.
	DefaultShutdownTimeout = 10 * time.Second
	// DefaultMaxBodyBytes caps request bodies.
	DefaultMaxBodyBytes = 1 << 20
	// DefaultReadHeaderTimeout guards against slow clients.
	DefaultReadHeaderTimeout = 5 * time.Second
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr            string        // listen address, e.g. ":8080"
	ShutdownTimeout time.Duration // grace period for in-flight requests
	MaxBodyBytes    int64         // maximum accepted request body size
}

// Option defines a function that configures Opts.
type Option func(*Opts)

// WithAddr sets the server listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// WithShutdownTimeout sets the graceful shutdown grace period.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Opts) {
		o.ShutdownTimeout = d
	}
}

// WithMaxBodyBytes sets the maximum accepted request body size.
func WithMaxBodyBytes(n int64) Option {
	return func(o *Opts) {
		o.MaxBodyBytes = n
	}
}

// Server serves the HTTP API on top of a record store and a risk engine.
type Server struct {
	store   store.Store
	engine  *risk.Engine
	metrics *Metrics
	opts    Opts
	handler http.Handler
}

// NewServer creates a Server. The engine must read from the same store the server writes to.
func NewServer(st store.Store, engine *risk.Engine, opts ...Option) *Server {
	cfg := Opts{
		Addr:            DefaultServerAddress,
		ShutdownTimeout: DefaultShutdownTimeout,
		MaxBodyBytes:    DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultServerAddress
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		store:   st,
		engine:  engine,
		metrics: NewMetrics(),
		opts:    cfg,
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	s.handle(mux, "POST /users/{userID}/crisis-resolutions", s.addCrisisResolutionHandler)
	s.handle(mux, "POST /users/{userID}/check-ins", s.addCheckInHandler)
	s.handle(mux, "GET /users/{userID}/risk", s.riskHandler)
	s.handle(mux, "GET /users/{userID}/patterns", s.patternsHandler)
	s.handle(mux, "GET /users/{userID}/vulnerable-hours", s.vulnerableHoursHandler)
	s.handle(mux, "GET /users/{userID}/interventions", s.interventionsHandler)
	s.handle(mux, "POST /content/analyze", s.analyzeContentHandler)
	s.handle(mux, "GET /healthz", s.healthHandler)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return mux
}

// handle registers h under pattern and records request metrics labelled by that pattern.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		r.Body = http.MaxBytesReader(rec, r.Body, s.opts.MaxBodyBytes)
		h(rec, r)
		s.metrics.RecordRequest(pattern, rec.status, time.Since(start))
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.opts.Addr
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.ListenAndServe: API listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Server.ListenAndServe: shutting down", "timeout", s.opts.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown failed: %w", err)
	}
	return nil
}

// Run opens the store, builds the risk engine and serves the API until SIGINT or SIGTERM.
func Run(storeOpts []store.Option, riskOpts []risk.Option, apiOpts []Option) error {
	st, err := store.NewStore(storeOpts...)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Warn("Run: failed to close store", "error", err)
		}
	}()

	engine := risk.NewEngine(st, riskOpts...)
	server := NewServer(st, engine, apiOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.ListenAndServe(ctx)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
