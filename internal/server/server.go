// Package server exposes the enhancement engine over HTTP.
//
// Routes:
//
//	POST /v1/enhance  transcription JSON in, enhanced JSON out
//	GET  /v1/info     engine version, library and classifier summary
//	GET  /healthz     liveness
//	GET  /readyz      readiness (see [health.Handler])
//	GET  /metrics     Prometheus scrape endpoint
//
// Every route is wrapped in [observe.Middleware].
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/fretscribe/internal/enhance"
	"github.com/MrWong99/fretscribe/internal/health"
	"github.com/MrWong99/fretscribe/internal/observe"
	"github.com/MrWong99/fretscribe/pkg/transcription"
)

// Defaults for the underlying [http.Server].
const (
	DefaultShutdownTimeout = 15 * time.Second
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultMaxBodyBytes    = 32 << 20
)

// Header names set on /v1/enhance responses.
const (
	HeaderRunID   = "X-Fretscribe-Run-Id"
	HeaderBoosted = "X-Fretscribe-Boosted"
)

// Enhancer runs one enhancement pass. It is satisfied by *app.App and
// *enhance.Evaluator.
type Enhancer interface {
	Enhance(ctx context.Context, doc *transcription.Document) (*transcription.Document, *enhance.Report)
}

// Server is the fretscribe HTTP service.
type Server struct {
	enhancer       Enhancer
	checkers       []health.Checker
	metrics        *observe.Metrics
	metricsHandler http.Handler
	info           func() any
	maxBody        int64
	shutdown       time.Duration
}

// Option is a functional option for New.
type Option func(*Server)

// WithCheckers sets the readiness probes served on /readyz.
func WithCheckers(c ...health.Checker) Option {
	return func(s *Server) { s.checkers = append(s.checkers, c...) }
}

// WithMetrics sets the metrics used by the request middleware.
// Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithMetricsHandler replaces the /metrics handler. Default: promhttp.Handler.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithInfo sets the function whose result is served on /v1/info.
func WithInfo(fn func() any) Option {
	return func(s *Server) { s.info = fn }
}

// WithMaxBodyBytes caps the size of a posted document. Values <= 0 keep the
// default of 32 MiB.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithShutdownTimeout bounds graceful shutdown in [Server.ListenAndServe].
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdown = d
		}
	}
}

// New creates a Server around e.
func New(e Enhancer, opts ...Option) *Server {
	s := &Server{
		enhancer: e,
		maxBody:  defaultMaxBodyBytes,
		shutdown: DefaultShutdownTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.metricsHandler == nil {
		s.metricsHandler = promhttp.Handler()
	}
	return s
}

// Handler returns the routed, instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/enhance", s.handleEnhance)
	mux.HandleFunc("GET /v1/info", s.handleInfo)
	mux.Handle("GET /metrics", s.metricsHandler)
	health.New(s.checkers...).Register(mux)
	return observe.Middleware(s.metrics)(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. certFile and keyFile enable TLS when both are non-empty.
func (s *Server) ListenAndServe(ctx context.Context, addr, certFile, keyFile string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, certFile, keyFile)
}

// Serve is like [Server.ListenAndServe] on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, certFile, keyFile string) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", ln.Addr().String(), "tls", certFile != "")
		var err error
		if certFile != "" && keyFile != "" {
			err = srv.ServeTLS(ln, certFile, keyFile)
		} else {
			err = srv.Serve(ln)
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: serve: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: serve: %w", err)
	}
	slog.Info("server shutdown complete")
	return nil
}

func (s *Server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := transcription.Decode(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("document exceeds %d bytes", tooLarge.Limit))
			return
		}
		observe.Logger(ctx).Debug("rejected malformed document", "err", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, rep := s.enhancer.Enhance(ctx, doc)
	if rep != nil {
		w.Header().Set(HeaderRunID, rep.RunID)
		w.Header().Set(HeaderBoosted, fmt.Sprint(rep.BoostedTerminology+rep.BoostedPattern))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"evaluator_version": enhance.Version}
	if s.info != nil {
		body["engine"] = s.info()
	}
	writeJSON(w, http.StatusOK, body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("server: write response", "err", err)
	}
}
