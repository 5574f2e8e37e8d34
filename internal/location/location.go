// Package location implements the location-provider boundary. Acquisition is
// bounded (10s) and falls back to the last successfully acquired coordinate,
// which is persisted so the fallback survives restarts.
package location

import (
	"context"
	"log/slog"
	"time"

	"umbrella/internal/state"
	"umbrella/internal/types"
)

// DefaultTimeout bounds one location acquisition.
const DefaultTimeout = 10 * time.Second

// Compile-time assertions.
var (
	_ types.LocationProvider = (*StaticProvider)(nil)
	_ types.LocationProvider = (*Resolver)(nil)
)

// StaticProvider returns a fixed coordinate from configuration. It is the
// stock provider for the daemon, which has no positioning hardware.
type StaticProvider struct {
	coord types.Coordinates
}

// NewStaticProvider creates a provider pinned to one coordinate.
func NewStaticProvider(coord types.Coordinates) *StaticProvider {
	return &StaticProvider{coord: coord}
}

// Current returns the configured coordinate.
func (p *StaticProvider) Current(ctx context.Context) (types.Coordinates, error) {
	return p.coord, nil
}

// Resolver wraps an inner provider with a timeout and the last-known
// fallback. A successful acquisition refreshes the persisted last-known
// coordinate; on failure or timeout the cached coordinate is returned
// instead, and only when no cache exists does the resolver report
// location_unavailable.
type Resolver struct {
	inner   types.LocationProvider
	prefs   *state.Preferences
	timeout time.Duration
	logger  *slog.Logger
}

// ResolverConfig holds the configuration for creating a Resolver.
type ResolverConfig struct {
	Inner   types.LocationProvider
	Prefs   *state.Preferences
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewResolver creates a Resolver with the given configuration.
func NewResolver(cfg ResolverConfig) *Resolver {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		inner:   cfg.Inner,
		prefs:   cfg.Prefs,
		timeout: timeout,
		logger:  logger,
	}
}

// Current acquires the current coordinate with the fallback chain described
// on Resolver.
func (r *Resolver) Current(ctx context.Context) (types.Coordinates, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	coord, err := r.inner.Current(acquireCtx)
	if err == nil {
		if saveErr := r.prefs.SetLastKnownLocation(ctx, coord); saveErr != nil {
			// Cache refresh failure is not fatal; the fix itself is good.
			r.logger.WarnContext(ctx, "failed to cache location", "error", saveErr)
		}
		return coord, nil
	}

	r.logger.WarnContext(ctx, "location acquisition failed, trying last known",
		"error", err,
	)

	cached, ok, cacheErr := r.prefs.LastKnownLocation(ctx)
	if cacheErr == nil && ok {
		return cached, nil
	}

	return types.Coordinates{}, types.NewAppError(
		types.ErrCodeLocationUnavailable,
		"no current or cached location available",
		err,
	)
}
