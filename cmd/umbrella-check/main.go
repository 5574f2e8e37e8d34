// Package main implements a one-shot umbrella check. It runs a single
// pipeline cycle against the configured location and prints the decision as
// JSON, which makes it useful for cron jobs and manual verification without
// the daemon running.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"umbrella/internal/config"
	"umbrella/internal/history"
	"umbrella/internal/location"
	"umbrella/internal/notify"
	"umbrella/internal/scheduler"
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

func run() error {
	dryRun := flag.Bool("dry-run", false, "decide but never deliver a notification")
	timeout := flag.Duration("timeout", time.Minute, "overall cycle deadline")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := state.Open(cfg.State.Path)
	if err != nil {
		return fmt.Errorf("opening state database: %w", err)
	}
	defer store.Close()

	prefs := state.NewPreferences(store)

	var source types.WeatherSource = weather.NewClient(weather.ClientConfig{
		APIKey:  cfg.Weather.APIKey,
		BaseURL: cfg.Weather.BaseURL,
		Timeout: cfg.Weather.Timeout,
		Logger:  logger,
	})

	resolver := location.NewResolver(location.ResolverConfig{
		Inner: location.NewStaticProvider(types.Coordinates{
			Latitude:  cfg.Location.Latitude,
			Longitude: cfg.Location.Longitude,
		}),
		Prefs:   prefs,
		Timeout: cfg.Location.Timeout,
		Logger:  logger,
	})

	var notifier types.Notifier = notify.NewLogNotifier(logger)
	if !*dryRun && cfg.Notify.WebhookURL != "" {
		notifier, err = notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:     cfg.Notify.WebhookURL,
			Timeout: cfg.Notify.Timeout,
			Logger:  logger,
		})
		if err != nil {
			return fmt.Errorf("creating webhook notifier: %w", err)
		}
	}

	pipeline := scheduler.NewPipeline(scheduler.PipelineConfig{
		Location: resolver,
		Weather:  source,
		Notifier: notifier,
		Prefs:    prefs,
		History:  history.NewRecorder(store.DB()),
		Clock:    types.RealClock{},
		HighPct:  cfg.Umbrella.HighThresholdPct,
		Logger:   logger,
	})

	result, err := pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("check cycle: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
