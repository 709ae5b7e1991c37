package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"earnings-watch/internal/earnings"
	"earnings-watch/internal/service"
)

// Options configure the HTTP server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server exposes estimates over HTTP.
type Server struct {
	router    *chi.Mux
	opts      Options
	estimator service.EstimateProvider
	logger    zerolog.Logger
}

// NewServer builds the router. metrics may be nil to disable /metrics.
func NewServer(opts Options, estimator service.EstimateProvider, metrics http.Handler, logger zerolog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		opts:      opts,
		estimator: estimator,
		logger:    logger.With().Str("component", "api").Logger(),
	}
	router.Use(s.logRequests)

	router.Get("/health", s.health)
	if metrics != nil {
		router.Method(http.MethodGet, "/metrics", metrics)
	}
	router.Get("/api/v1/earnings/{symbol}", s.estimate)

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.opts.Addr).Msg("API server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) estimate(w http.ResponseWriter, r *http.Request) {
	est, err := s.estimator.Estimate(r.Context(), chi.URLParam(r, "symbol"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, est)
	case errors.Is(err, service.ErrInvalidSymbol):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, service.ErrInsufficientData), errors.Is(err, earnings.ErrNoCandidate):
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("estimate failed")
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request served")
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
