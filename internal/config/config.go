// Package config defines the configuration for the umbrella daemon.
// Configuration is loaded once at process start and is immutable thereafter,
// separating code from configuration 12-Factor style.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> Struct Defaults (Lowest)
//
// A missing required value or an invalid format fails startup immediately.
package config

import (
	"time"

	"umbrella/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used for configuration values that must never reach a log line.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the specific subsets they require.
type Config struct {
	// System metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"umbrellad"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// Domain configurations
	Server   ServerConfig
	Weather  WeatherConfig
	Location LocationConfig
	Notify   NotifyConfig
	Schedule ScheduleConfig
	Umbrella UmbrellaConfig
	State    StateConfig
	History  HistoryConfig

	// Build metadata (injected via ldflags, not env)
	Build BuildInfo
}

// ServerConfig holds the admin HTTP server settings.
type ServerConfig struct {
	Addr            string        `envconfig:"HTTP_ADDR" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"20s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
}

// WeatherConfig holds the upstream weather API settings.
type WeatherConfig struct {
	APIKey  SecretString  `envconfig:"OPENWEATHER_API_KEY" validate:"required"`
	BaseURL string        `envconfig:"OPENWEATHER_BASE_URL" default:"https://api.openweathermap.org/data/2.5" validate:"url"`
	Timeout time.Duration `envconfig:"WEATHER_TIMEOUT" default:"15s"`

	// Client-side throttle against the upstream's free-tier quota.
	RateLimitRPS   float64 `envconfig:"WEATHER_RATE_LIMIT_RPS" default:"1"`
	RateLimitBurst int     `envconfig:"WEATHER_RATE_LIMIT_BURST" default:"3" validate:"gte=1"`
}

// LocationConfig holds the coordinate the daemon evaluates weather for.
type LocationConfig struct {
	Latitude  float64       `envconfig:"LOCATION_LAT" validate:"gte=-90,lte=90"`
	Longitude float64       `envconfig:"LOCATION_LON" validate:"gte=-180,lte=180"`
	Timeout   time.Duration `envconfig:"LOCATION_TIMEOUT" default:"10s"`
}

// NotifyConfig holds outbound notification delivery settings. An empty
// webhook URL falls back to log-only delivery.
type NotifyConfig struct {
	WebhookURL string        `envconfig:"NOTIFY_WEBHOOK_URL" validate:"omitempty,url"`
	Timeout    time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"10s"`
}

// ScheduleConfig holds the periodic check cadence.
type ScheduleConfig struct {
	Interval    time.Duration `envconfig:"CHECK_INTERVAL" default:"2h" validate:"gt=0"`
	Flex        time.Duration `envconfig:"CHECK_FLEX" default:"30m" validate:"gte=0"`
	BackoffBase time.Duration `envconfig:"CHECK_BACKOFF_BASE" default:"1h" validate:"gt=0"`
}

// UmbrellaConfig holds the decision thresholds.
type UmbrellaConfig struct {
	LowThresholdPct  int `envconfig:"UMBRELLA_LOW_THRESHOLD" default:"30" validate:"gte=0,lte=100"`
	HighThresholdPct int `envconfig:"UMBRELLA_HIGH_THRESHOLD" default:"60" validate:"gte=0,lte=100,gtefield=LowThresholdPct"`
}

// StateConfig holds the local state database settings.
type StateConfig struct {
	Path string `envconfig:"STATE_DB_PATH" default:"umbrella.db" validate:"required"`
}

// HistoryConfig holds sent-notification retention settings.
type HistoryConfig struct {
	Retention  time.Duration `envconfig:"HISTORY_RETENTION" default:"720h" validate:"gt=0"`
	ArchiveDir string        `envconfig:"HISTORY_ARCHIVE_DIR" default:"archives"`
}

// Thresholds returns the configured decision thresholds as the domain type.
func (c *Config) Thresholds() types.Thresholds {
	return types.Thresholds{
		LowPct:  c.Umbrella.LowThresholdPct,
		HighPct: c.Umbrella.HighThresholdPct,
	}
}

// TaskSpec returns the periodic check task derived from the schedule
// configuration.
func (c *Config) TaskSpec() types.TaskSpec {
	spec := types.DefaultTaskSpec()
	spec.Interval = c.Schedule.Interval
	spec.Flex = c.Schedule.Flex
	spec.BackoffBase = c.Schedule.BackoffBase
	return spec
}

// ConfigErrorType classifies configuration load failures.
type ConfigErrorType string

const (
	// ErrParsing indicates envconfig could not populate the struct.
	ErrParsing ConfigErrorType = "parsing"
	// ErrValidation indicates the populated struct failed validation.
	ErrValidation ConfigErrorType = "validation"
)

// ConfigError is a diagnostic error type returned by LoadConfig.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return string(e.Type) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Type) + ": " + e.Message
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}
