package weather

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"umbrella/internal/types"
)

// Compile-time assertion that RateLimitedSource implements types.WeatherSource.
var _ types.WeatherSource = (*RateLimitedSource)(nil)

// RateLimitedSource wraps a WeatherSource with a token-bucket limiter to
// stay inside the provider's free-tier quota. Both fetches draw from the
// same bucket since they hit the same quota.
type RateLimitedSource struct {
	source  types.WeatherSource
	limiter *rate.Limiter
}

// NewRateLimitedSource creates a rate-limited source. rps may be fractional
// for less than one request per second; burst is the bucket size.
func NewRateLimitedSource(source types.WeatherSource, rps float64, burst int) *RateLimitedSource {
	return &RateLimitedSource{
		source:  source,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// FetchCurrent waits for limiter permission then delegates.
func (r *RateLimitedSource) FetchCurrent(ctx context.Context, coord types.Coordinates) (types.WeatherReading, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return types.WeatherReading{}, types.NewAppError(
			types.ErrCodeFetchFailed,
			fmt.Sprintf("rate limit wait canceled: %v", err),
			err,
		)
	}
	return r.source.FetchCurrent(ctx, coord)
}

// FetchForecast waits for limiter permission then delegates.
func (r *RateLimitedSource) FetchForecast(ctx context.Context, coord types.Coordinates) ([]types.ForecastPoint, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeFetchFailed,
			fmt.Sprintf("rate limit wait canceled: %v", err),
			err,
		)
	}
	return r.source.FetchForecast(ctx, coord)
}
