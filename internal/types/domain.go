// Package types defines the shared domain model for the umbrella service:
// weather readings, categories, umbrella verdicts, persisted notification
// state, and the cross-cutting interfaces wired between packages.
package types

import "time"

// WeatherCategory is the coarse classification of a weather condition code.
type WeatherCategory string

const (
	CategorySunny  WeatherCategory = "sunny"
	CategoryCloudy WeatherCategory = "cloudy"
	CategoryRainy  WeatherCategory = "rainy"
	CategoryStormy WeatherCategory = "stormy"
	CategorySnowy  WeatherCategory = "snowy"
)

// UmbrellaVerdict is the umbrella-necessity classification for a reading.
type UmbrellaVerdict string

const (
	VerdictNeeded    UmbrellaVerdict = "needed"
	VerdictMaybe     UmbrellaVerdict = "maybe"
	VerdictNotNeeded UmbrellaVerdict = "not_needed"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// WeatherReading is a normalized snapshot of current conditions at a point.
// Readings are produced fresh each poll cycle and are never mutated; the only
// persistence is the optional last-known-good cache in the state store.
type WeatherReading struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	TemperatureC     float64 `json:"temperature_c"`
	HumidityPct      int     `json:"humidity_pct"`
	WindSpeedMps     float64 `json:"wind_speed_mps"`
	ConditionCode    int     `json:"condition_code"`
	Description      string  `json:"description"`
	HasPrecipitation bool    `json:"has_precipitation"`
	CapturedAtMs     int64   `json:"captured_at_ms"`
}

// ForecastPoint is one 3-hour interval of a short-range forecast. Unlike a
// current reading it carries an explicit probability of precipitation.
type ForecastPoint struct {
	Date          string  `json:"date"` // yyyy-mm-dd, for day bucketing
	TemperatureC  float64 `json:"temperature_c"`
	HumidityPct   int     `json:"humidity_pct"`
	ConditionCode int     `json:"condition_code"`
	Pop           float64 `json:"pop"` // probability of precipitation [0,1]
	CapturedAtMs  int64   `json:"captured_at_ms"`
}

// Probability returns the forecast point's rain probability as an integer
// percentage, rounded.
func (p ForecastPoint) Probability() int {
	return int(p.Pop*100 + 0.5)
}

// Thresholds are the user-tunable probability cut-offs for the umbrella
// decision. Low gates MAYBE, High gates NEEDED.
type Thresholds struct {
	LowPct  int `json:"low_pct"`
	HighPct int `json:"high_pct"`
}

// DefaultThresholds returns the stock decision thresholds (30/60).
func DefaultThresholds() Thresholds {
	return Thresholds{LowPct: 30, HighPct: 60}
}

// NotificationState is the persisted, process-wide notification bookkeeping.
// It is read at every scheduler tick and mutated only after a successful send
// or an explicit settings change. All reads and writes go through the state
// store, which serializes them.
type NotificationState struct {
	LastSentAtMs     int64 `json:"last_sent_at_ms"`
	Enabled          bool  `json:"enabled"`
	WindowStartHour  int   `json:"window_start_hour"` // inclusive, [0,23]
	WindowEndHour    int   `json:"window_end_hour"`   // exclusive, [0,23]
	RainThresholdPct int   `json:"rain_threshold_pct"`
}

// DefaultNotificationState returns the state used before anything is
// persisted: notifications on, window [6,19), 30% rain threshold.
func DefaultNotificationState() NotificationState {
	return NotificationState{
		LastSentAtMs:     0,
		Enabled:          true,
		WindowStartHour:  6,
		WindowEndHour:    19,
		RainThresholdPct: 30,
	}
}

// TaskSpec describes one uniquely-named periodic execution unit. Registering
// a spec under an existing name replaces the previous registration.
type TaskSpec struct {
	Name            string        `json:"name"`
	Interval        time.Duration `json:"interval"`
	Flex            time.Duration `json:"flex"` // jitter window around each tick
	RequiresNetwork bool          `json:"requires_network"`
	BackoffBase     time.Duration `json:"backoff_base"` // linear backoff step
}

// DefaultTaskSpec returns the stock umbrella-check task: every 2 hours with
// a 30-minute flex window and 1-hour linear backoff.
func DefaultTaskSpec() TaskSpec {
	return TaskSpec{
		Name:            "umbrella_check",
		Interval:        2 * time.Hour,
		Flex:            30 * time.Minute,
		RequiresNetwork: true,
		BackoffBase:     time.Hour,
	}
}

// Notification is a rendered message handed to a Notifier.
type Notification struct {
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}
