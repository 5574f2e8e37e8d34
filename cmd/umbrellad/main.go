// Package main is the entry point for the umbrella daemon.
//
// It loads configuration, opens the local state database, wires the weather
// client, location resolver, and notifier into the check pipeline, schedules
// the periodic umbrella check plus the history archive task, and serves the
// admin HTTP API until SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"umbrella/internal/config"
	"umbrella/internal/history"
	"umbrella/internal/location"
	"umbrella/internal/notify"
	"umbrella/internal/scheduler"
	"umbrella/internal/server"
	"umbrella/internal/state"
	"umbrella/internal/types"
	"umbrella/internal/weather"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	logger.Info("umbrella daemon starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"addr", cfg.Server.Addr,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := state.Open(cfg.State.Path)
	if err != nil {
		return fmt.Errorf("opening state database: %w", err)
	}
	defer store.Close()

	prefs := state.NewPreferences(store)
	recorder := history.NewRecorder(store.DB())
	clock := types.RealClock{}

	var source types.WeatherSource = weather.NewClient(weather.ClientConfig{
		APIKey:  cfg.Weather.APIKey,
		BaseURL: cfg.Weather.BaseURL,
		Timeout: cfg.Weather.Timeout,
		Logger:  logger,
	})
	if cfg.Weather.RateLimitRPS > 0 {
		source = weather.NewRateLimitedSource(source, cfg.Weather.RateLimitRPS, cfg.Weather.RateLimitBurst)
	}

	resolver := location.NewResolver(location.ResolverConfig{
		Inner: location.NewStaticProvider(types.Coordinates{
			Latitude:  cfg.Location.Latitude,
			Longitude: cfg.Location.Longitude,
		}),
		Prefs:   prefs,
		Timeout: cfg.Location.Timeout,
		Logger:  logger,
	})

	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		return err
	}

	pipeline := scheduler.NewPipeline(scheduler.PipelineConfig{
		Location: resolver,
		Weather:  source,
		Notifier: notifier,
		Prefs:    prefs,
		History:  recorder,
		Clock:    clock,
		HighPct:  cfg.Umbrella.HighThresholdPct,
		Logger:   logger,
	})

	registry := scheduler.NewRegistry(scheduler.RegistryConfig{Clock: clock, Logger: logger})
	defer registry.Shutdown()

	registry.Register(ctx, cfg.TaskSpec(), pipeline)

	archiver := history.NewArchiver(history.ArchiverConfig{
		Recorder:  recorder,
		Dir:       cfg.History.ArchiveDir,
		Retention: cfg.History.Retention,
		Clock:     clock,
		Logger:    logger,
	})
	registry.Register(ctx, types.TaskSpec{
		Name:        "history_archive",
		Interval:    24 * time.Hour,
		Flex:        time.Hour,
		BackoffBase: time.Hour,
	}, &archiveCycle{archiver: archiver, clock: clock})

	srv, err := server.New(server.Config{
		Cfg:    cfg,
		Logger: logger,
		Prefs:  prefs,
		Cycle:  pipeline,
		Sched:  registry,
		Readiness: func(ctx context.Context) error {
			return store.DB().PingContext(ctx)
		},
	})
	if err != nil {
		return fmt.Errorf("creating admin API: %w", err)
	}

	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}

	logger.Info("umbrella daemon stopped")
	return nil
}

// buildNotifier picks webhook delivery when a URL is configured and falls
// back to log-only delivery otherwise.
func buildNotifier(cfg *config.Config, logger *slog.Logger) (types.Notifier, error) {
	if cfg.Notify.WebhookURL == "" {
		logger.Info("no webhook configured, notifications will be logged only")
		return notify.NewLogNotifier(logger), nil
	}
	n, err := notify.NewWebhookNotifier(notify.WebhookConfig{
		URL:     cfg.Notify.WebhookURL,
		Timeout: cfg.Notify.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating webhook notifier: %w", err)
	}
	return n, nil
}

// archiveCycle adapts the history archiver to the scheduler's cycle
// interface.
type archiveCycle struct {
	archiver *history.Archiver
	clock    types.Clock
}

func (c *archiveCycle) Run(ctx context.Context) (scheduler.Result, error) {
	if _, err := c.archiver.Run(ctx); err != nil {
		return scheduler.Result{}, err
	}
	return scheduler.Result{FinishedAt: c.clock.Now()}, nil
}
