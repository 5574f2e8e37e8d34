package state

import (
	"context"
	"encoding/json"
	"time"

	"umbrella/internal/types"
)

// Key names in the kv table. Stable; changing one silently resets the value
// to its default for existing installations.
const (
	keyEnabled          = "umbrella_notifications_enabled"
	keyLastSentAt       = "last_umbrella_notification_ms"
	keyWindowStartHour  = "notification_start_hour"
	keyWindowEndHour    = "notification_end_hour"
	keyRainThresholdPct = "rain_threshold_pct"
	keyLastKnownLat     = "last_known_latitude_e6"
	keyLastKnownLon     = "last_known_longitude_e6"
	keyHasLastKnown     = "has_last_known_location"
	keyCachedReading    = "last_good_reading_json"
)

// coordScale fixes coordinate precision for integer storage (micro-degrees).
const coordScale = 1e6

// Preferences is the typed view over the key-value store for the
// notification state and the location/reading caches.
type Preferences struct {
	store types.StateStore
}

// NewPreferences wraps a state store.
func NewPreferences(store types.StateStore) *Preferences {
	return &Preferences{store: store}
}

// Load reads the full notification state, applying defaults for any key
// never written.
func (p *Preferences) Load(ctx context.Context) (types.NotificationState, error) {
	def := types.DefaultNotificationState()

	enabled, err := p.store.GetBool(ctx, keyEnabled, def.Enabled)
	if err != nil {
		return def, err
	}
	lastSent, err := p.store.GetInt64(ctx, keyLastSentAt, def.LastSentAtMs)
	if err != nil {
		return def, err
	}
	start, err := p.store.GetInt(ctx, keyWindowStartHour, def.WindowStartHour)
	if err != nil {
		return def, err
	}
	end, err := p.store.GetInt(ctx, keyWindowEndHour, def.WindowEndHour)
	if err != nil {
		return def, err
	}
	threshold, err := p.store.GetInt(ctx, keyRainThresholdPct, def.RainThresholdPct)
	if err != nil {
		return def, err
	}

	return types.NotificationState{
		Enabled:          enabled,
		LastSentAtMs:     lastSent,
		WindowStartHour:  start,
		WindowEndHour:    end,
		RainThresholdPct: threshold,
	}, nil
}

// SetLastSentAt persists the last-notification timestamp. Called only after
// a successful send.
func (p *Preferences) SetLastSentAt(ctx context.Context, t time.Time) error {
	return p.store.SetInt64(ctx, keyLastSentAt, t.UnixMilli())
}

// SetEnabled toggles notifications.
func (p *Preferences) SetEnabled(ctx context.Context, enabled bool) error {
	return p.store.SetBool(ctx, keyEnabled, enabled)
}

// SetWindow persists the allowed notification hours [start, end).
func (p *Preferences) SetWindow(ctx context.Context, startHour, endHour int) error {
	if err := p.store.SetInt(ctx, keyWindowStartHour, startHour); err != nil {
		return err
	}
	return p.store.SetInt(ctx, keyWindowEndHour, endHour)
}

// SetRainThreshold persists the MAYBE probability cut-off.
func (p *Preferences) SetRainThreshold(ctx context.Context, pct int) error {
	return p.store.SetInt(ctx, keyRainThresholdPct, pct)
}

// LastKnownLocation returns the cached coordinate from the most recent
// successful location acquisition, if any.
func (p *Preferences) LastKnownLocation(ctx context.Context) (types.Coordinates, bool, error) {
	has, err := p.store.GetBool(ctx, keyHasLastKnown, false)
	if err != nil || !has {
		return types.Coordinates{}, false, err
	}
	latE6, err := p.store.GetInt64(ctx, keyLastKnownLat, 0)
	if err != nil {
		return types.Coordinates{}, false, err
	}
	lonE6, err := p.store.GetInt64(ctx, keyLastKnownLon, 0)
	if err != nil {
		return types.Coordinates{}, false, err
	}
	return types.Coordinates{
		Latitude:  float64(latE6) / coordScale,
		Longitude: float64(lonE6) / coordScale,
	}, true, nil
}

// SetLastKnownLocation caches a successfully acquired coordinate.
func (p *Preferences) SetLastKnownLocation(ctx context.Context, coord types.Coordinates) error {
	if err := p.store.SetInt64(ctx, keyLastKnownLat, int64(coord.Latitude*coordScale)); err != nil {
		return err
	}
	if err := p.store.SetInt64(ctx, keyLastKnownLon, int64(coord.Longitude*coordScale)); err != nil {
		return err
	}
	return p.store.SetBool(ctx, keyHasLastKnown, true)
}

// CachedReading returns the last-known-good weather reading, or nil when
// none has been cached yet.
func (p *Preferences) CachedReading(ctx context.Context) (*types.WeatherReading, error) {
	raw, err := p.store.GetString(ctx, keyCachedReading, "")
	if err != nil || raw == "" {
		return nil, err
	}
	var reading types.WeatherReading
	if err := json.Unmarshal([]byte(raw), &reading); err != nil {
		return nil, nil // corrupt cache is treated as absent
	}
	return &reading, nil
}

// SetCachedReading stores the last-known-good weather reading.
func (p *Preferences) SetCachedReading(ctx context.Context, reading types.WeatherReading) error {
	raw, err := json.Marshal(reading)
	if err != nil {
		return types.NewAppError(types.ErrCodeStateStore, "encoding cached reading", err)
	}
	return p.store.SetString(ctx, keyCachedReading, string(raw))
}
