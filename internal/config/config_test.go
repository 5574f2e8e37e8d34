package config

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "local")
	t.Setenv("OPENWEATHER_API_KEY", "test-key-123")
}

func TestLoadConfigDefaults(t *testing.T) {
	setValidEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, "umbrellad", cfg.Service)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "https://api.openweathermap.org/data/2.5", cfg.Weather.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Weather.Timeout)
	assert.Equal(t, 2*time.Hour, cfg.Schedule.Interval)
	assert.Equal(t, 30*time.Minute, cfg.Schedule.Flex)
	assert.Equal(t, time.Hour, cfg.Schedule.BackoffBase)
	assert.Equal(t, 30, cfg.Umbrella.LowThresholdPct)
	assert.Equal(t, 60, cfg.Umbrella.HighThresholdPct)
	assert.Equal(t, "umbrella.db", cfg.State.Path)
	assert.Equal(t, 720*time.Hour, cfg.History.Retention)
	assert.Equal(t, "dev", cfg.Build.Version)
}

func TestLoadConfigRedactsAPIKey(t *testing.T) {
	setValidEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "***REDACTED***", cfg.Weather.APIKey.String())
	assert.Equal(t, "test-key-123", cfg.Weather.APIKey.Unmask())
}

func TestLoadConfigMissingAPIKey(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("OPENWEATHER_API_KEY", "")

	_, err := LoadConfig()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, ErrValidation, cfgErr.Type)
}

func TestLoadConfigRejectsUnknownEnvironment(t *testing.T) {
	setValidEnv(t)
	t.Setenv("APP_ENV", "production") // only "prod" is accepted

	_, err := LoadConfig()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, ErrValidation, cfgErr.Type)
}

func TestLoadConfigRejectsInvertedThresholds(t *testing.T) {
	setValidEnv(t)
	t.Setenv("UMBRELLA_LOW_THRESHOLD", "70")
	t.Setenv("UMBRELLA_HIGH_THRESHOLD", "40")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsMalformedDuration(t *testing.T) {
	setValidEnv(t)
	t.Setenv("CHECK_INTERVAL", "two hours")

	_, err := LoadConfig()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, ErrParsing, cfgErr.Type)
}

func TestLoadConfigOverrides(t *testing.T) {
	setValidEnv(t)
	t.Setenv("CHECK_INTERVAL", "45m")
	t.Setenv("LOCATION_LAT", "35.6762")
	t.Setenv("LOCATION_LON", "139.6503")
	t.Setenv("NOTIFY_WEBHOOK_URL", "https://hooks.example.com/umbrella")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 45*time.Minute, cfg.Schedule.Interval)
	assert.InDelta(t, 35.6762, cfg.Location.Latitude, 1e-9)
	assert.InDelta(t, 139.6503, cfg.Location.Longitude, 1e-9)
	assert.Equal(t, "https://hooks.example.com/umbrella", cfg.Notify.WebhookURL)
}

func TestThresholdsHelper(t *testing.T) {
	cfg := Config{}
	cfg.Umbrella.LowThresholdPct = 25
	cfg.Umbrella.HighThresholdPct = 75

	th := cfg.Thresholds()
	assert.Equal(t, 25, th.LowPct)
	assert.Equal(t, 75, th.HighPct)
}

func TestTaskSpecHelper(t *testing.T) {
	cfg := Config{}
	cfg.Schedule.Interval = time.Hour
	cfg.Schedule.Flex = 10 * time.Minute
	cfg.Schedule.BackoffBase = 20 * time.Minute

	spec := cfg.TaskSpec()
	assert.Equal(t, "umbrella_check", spec.Name)
	assert.Equal(t, time.Hour, spec.Interval)
	assert.Equal(t, 10*time.Minute, spec.Flex)
	assert.Equal(t, 20*time.Minute, spec.BackoffBase)
}

func TestSlogLevel(t *testing.T) {
	cases := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tc := range cases {
		cfg := Config{LogLevel: tc.level}
		assert.Equal(t, tc.want, cfg.SlogLevel(), "level %q", tc.level)
	}
}

func TestConfigErrorFormatting(t *testing.T) {
	inner := errors.New("boom")
	err := &ConfigError{Type: ErrParsing, Message: "bad env", Err: inner}
	assert.Contains(t, err.Error(), "parsing")
	assert.Contains(t, err.Error(), "bad env")
	assert.ErrorIs(t, err, inner)

	bare := &ConfigError{Type: ErrValidation, Message: "invalid"}
	assert.Equal(t, "validation: invalid", bare.Error())
}
