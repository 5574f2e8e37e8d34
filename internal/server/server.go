// Package server exposes the daemon's admin HTTP API: health, scheduler
// status, an on-demand check trigger, and the notification settings. It is a
// chi router with the cross-cutting middleware (request IDs, panic recovery,
// request logging) mounted ahead of the handlers.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"umbrella/internal/config"
	"umbrella/internal/scheduler"
	"umbrella/internal/state"
	"umbrella/internal/types"
)

// Scheduler is the subset of the task registry the API needs. The concrete
// implementation is scheduler.Registry.
type Scheduler interface {
	Register(ctx context.Context, spec types.TaskSpec, cycle scheduler.CycleRunner) *scheduler.Runner
	Status(name string) (scheduler.Status, bool)
	IsScheduled(name string) bool
}

// Server encapsulates the admin API dependencies and its router.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	prefs     *state.Preferences
	cycle     scheduler.CycleRunner
	sched     Scheduler
	taskSpec  types.TaskSpec
	readiness func(ctx context.Context) error

	router *chi.Mux
}

// Config holds the dependencies for creating a Server.
type Config struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Prefs  *state.Preferences
	Cycle  scheduler.CycleRunner
	Sched  Scheduler

	// Readiness is an optional probe (e.g., a database ping) consulted by
	// the health endpoint.
	Readiness func(ctx context.Context) error
}

// New initializes the server and mounts its routes.
func New(cfg Config) (*Server, error) {
	if cfg.Cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if cfg.Prefs == nil {
		return nil, fmt.Errorf("preferences must not be nil")
	}
	if cfg.Cycle == nil {
		return nil, fmt.Errorf("cycle runner must not be nil")
	}
	if cfg.Sched == nil {
		return nil, fmt.Errorf("scheduler must not be nil")
	}

	s := &Server{
		cfg:       cfg.Cfg,
		logger:    cfg.Logger,
		prefs:     cfg.Prefs,
		cycle:     cfg.Cycle,
		sched:     cfg.Sched,
		taskSpec:  cfg.Cfg.TaskSpec(),
		readiness: cfg.Readiness,
		router:    chi.NewRouter(),
	}
	s.mountRoutes()
	return s, nil
}

// Handler returns the http.Handler for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) mountRoutes() {
	s.router.Use(Recoverer(s.logger))
	s.router.Use(RequestID)
	s.router.Use(RequestLogger(s.logger))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/check", s.handleCheckNow)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
	})
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then shuts it
// down gracefully within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("admin API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down admin API: %w", err)
	}
	return <-errCh
}

// healthCheckTimeout bounds the readiness probe on the health endpoint.
const healthCheckTimeout = 2 * time.Second
