// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Divas-Gupta30/readease/internal/graph"
	"github.com/Divas-Gupta30/readease/internal/logging"
	"github.com/Divas-Gupta30/readease/internal/metrics"
)

const defaultMaxUpload = 25 << 20

// Pinger reports the health of an optional dependency such as the cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	pipeline  *graph.Pipeline
	metrics   *metrics.Metrics
	cache     Pinger
	log       *zap.Logger
	maxUpload int64
	router    *mux.Router
}

type Option func(*Server)

func WithMetrics(m *metrics.Metrics) Option { return func(s *Server) { s.metrics = m } }
func WithCache(p Pinger) Option { return func(s *Server) { s.cache = p } }
func WithLogger(l *zap.Logger) Option { return func(s *Server) { s.log = l } }
func WithMaxUpload(n int64) Option { return func(s *Server) { s.maxUpload = n } }

func New(p *graph.Pipeline, opts ...Option) *Server {
	s := &Server{pipeline: p, maxUpload: defaultMaxUpload}
	for _, o := range opts {
		o(s)
	}
	s.log = logging.OrNop(s.log)

	r := mux.NewRouter()
	r.Use(s.instrument)
	r.HandleFunc("/v1/documents", s.handleDocument).Methods(http.MethodPost)
	r.HandleFunc("/v1/simplify", s.handleSimplify).Methods(http.MethodPost)
	r.HandleFunc("/v1/summarize", s.handleSummarize).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("readease server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server exited")
	return <-errc
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tmpl
			}
		}
		s.metrics.ObserveRequest(r.Method, endpoint, rec.status, time.Since(start))
	})
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := errorResponse{Error: msg}
	if err != nil {
		resp.Detail = err.Error()
	}
	writeJSONResponse(w, status, resp)
}
