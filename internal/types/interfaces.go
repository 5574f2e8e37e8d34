package types

import (
	"context"
	"time"
)

// WeatherSource fetches current conditions and the short-range forecast for
// a coordinate. Implementations must apply metric units and collapse every
// failure mode (network, non-2xx status, malformed payload) into an AppError
// with code ErrCodeFetchFailed; the pipeline does not distinguish sub-causes.
type WeatherSource interface {
	FetchCurrent(ctx context.Context, coord Coordinates) (WeatherReading, error)
	FetchForecast(ctx context.Context, coord Coordinates) ([]ForecastPoint, error)
}

// LocationProvider resolves the coordinate to evaluate weather for.
// Implementations must bound acquisition (10s) and return an AppError with
// code ErrCodeLocationUnavailable when no position can be determined.
type LocationProvider interface {
	Current(ctx context.Context) (Coordinates, error)
}

// Notifier delivers a locally-rendered notification. Delivery failures are
// reported as AppError with code ErrCodeNotifyFailed; the pipeline logs them
// and does not retry within the same cycle. Rate limiting happens upstream,
// not in the Notifier.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// StateStore is the key-value persistence abstraction behind the
// notification state (SharedPreferences-style). Implementations must
// serialize writes and survive process restarts.
type StateStore interface {
	GetBool(ctx context.Context, key string, def bool) (bool, error)
	SetBool(ctx context.Context, key string, v bool) error
	GetInt(ctx context.Context, key string, def int) (int, error)
	SetInt(ctx context.Context, key string, v int) error
	GetInt64(ctx context.Context, key string, def int64) (int64, error)
	SetInt64(ctx context.Context, key string, v int64) error
	GetString(ctx context.Context, key string, def string) (string, error)
	SetString(ctx context.Context, key string, v string) error
}

// Clock abstracts time for testability. Decision and rate-limit logic never
// reads the global clock directly.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time { return time.Now() }
