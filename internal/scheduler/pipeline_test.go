package scheduler

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umbrella/internal/history"
	"umbrella/internal/state"
	"umbrella/internal/types"
)

// --- Mocks ---

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// memStore is an in-memory StateStore for pipeline tests.
type memStore struct{ m map[string]any }

func newMemStore() *memStore { return &memStore{m: make(map[string]any)} }

func (s *memStore) GetBool(_ context.Context, key string, def bool) (bool, error) {
	if v, ok := s.m[key].(bool); ok {
		return v, nil
	}
	return def, nil
}
func (s *memStore) SetBool(_ context.Context, key string, v bool) error {
	s.m[key] = v
	return nil
}
func (s *memStore) GetInt(_ context.Context, key string, def int) (int, error) {
	if v, ok := s.m[key].(int); ok {
		return v, nil
	}
	return def, nil
}
func (s *memStore) SetInt(_ context.Context, key string, v int) error {
	s.m[key] = v
	return nil
}
func (s *memStore) GetInt64(_ context.Context, key string, def int64) (int64, error) {
	if v, ok := s.m[key].(int64); ok {
		return v, nil
	}
	return def, nil
}
func (s *memStore) SetInt64(_ context.Context, key string, v int64) error {
	s.m[key] = v
	return nil
}
func (s *memStore) GetString(_ context.Context, key string, def string) (string, error) {
	if v, ok := s.m[key].(string); ok {
		return v, nil
	}
	return def, nil
}
func (s *memStore) SetString(_ context.Context, key string, v string) error {
	s.m[key] = v
	return nil
}

var _ types.StateStore = (*memStore)(nil)

type stubLocation struct {
	coord types.Coordinates
	err   error
}

func (s *stubLocation) Current(context.Context) (types.Coordinates, error) {
	return s.coord, s.err
}

type stubWeather struct {
	reading     types.WeatherReading
	forecast    []types.ForecastPoint
	currentErr  error
	forecastErr error
}

func (s *stubWeather) FetchCurrent(context.Context, types.Coordinates) (types.WeatherReading, error) {
	return s.reading, s.currentErr
}

func (s *stubWeather) FetchForecast(context.Context, types.Coordinates) ([]types.ForecastPoint, error) {
	return s.forecast, s.forecastErr
}

type stubNotifier struct {
	sent []types.Notification
	err  error
}

func (s *stubNotifier) Send(_ context.Context, n types.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

// --- Fixtures ---

// midMorning is inside the default notification window.
var midMorning = time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)

func rainyReading() types.WeatherReading {
	return types.WeatherReading{
		TemperatureC:  12,
		HumidityPct:   70,
		ConditionCode: 500,
		Description:   "light rain",
	}
}

func clearReading() types.WeatherReading {
	return types.WeatherReading{
		TemperatureC:  22,
		HumidityPct:   40,
		ConditionCode: 800,
		Description:   "clear sky",
	}
}

func newTestPipeline(t *testing.T, weather *stubWeather, notifier *stubNotifier, clock types.Clock) (*Pipeline, *state.Preferences) {
	t.Helper()
	prefs := state.NewPreferences(newMemStore())
	p := NewPipeline(PipelineConfig{
		Location: &stubLocation{coord: types.Coordinates{Latitude: 35.67, Longitude: 139.65}},
		Weather:  weather,
		Notifier: notifier,
		Prefs:    prefs,
		Clock:    clock,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return p, prefs
}

// --- Tests ---

func TestPipelineRainNotifies(t *testing.T) {
	notifier := &stubNotifier{}
	p, prefs := newTestPipeline(t, &stubWeather{reading: rainyReading()}, notifier, fixedClock{midMorning})

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.VerdictNeeded, res.Verdict)
	assert.Equal(t, 80, res.Probability)
	assert.True(t, res.Notified)
	assert.NotEmpty(t, res.CycleID)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, midMorning, notifier.sent[0].SentAt)

	st, err := prefs.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, midMorning.UnixMilli(), st.LastSentAtMs)

	cached, err := prefs.CachedReading(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, 500, cached.ConditionCode)
}

func TestPipelineClearSkyDoesNotNotify(t *testing.T) {
	notifier := &stubNotifier{}
	p, prefs := newTestPipeline(t, &stubWeather{reading: clearReading()}, notifier, fixedClock{midMorning})

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.VerdictNotNeeded, res.Verdict)
	assert.False(t, res.Notified)
	assert.Empty(t, res.Suppressed)
	assert.Empty(t, notifier.sent)

	st, err := prefs.Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.LastSentAtMs, "no send must be recorded")
}

func TestPipelineForecastEscalatesClearCurrent(t *testing.T) {
	today := midMorning.Format("2006-01-02")
	weather := &stubWeather{
		reading: clearReading(),
		forecast: []types.ForecastPoint{
			{Date: today, ConditionCode: 800, Pop: 0.05},
			{Date: today, ConditionCode: 500, Pop: 0.7},
			{Date: midMorning.AddDate(0, 0, 1).Format("2006-01-02"), ConditionCode: 500, Pop: 0.95},
		},
	}
	notifier := &stubNotifier{}
	p, _ := newTestPipeline(t, weather, notifier, fixedClock{midMorning})

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	// The wettest of today's points wins; tomorrow's 95% must not leak in.
	assert.Equal(t, types.VerdictNeeded, res.Verdict)
	assert.Equal(t, 70, res.Probability)
	assert.True(t, res.Notified)
}

func TestPipelineSuppressedOutsideWindow(t *testing.T) {
	lateNight := time.Date(2026, 3, 10, 22, 0, 0, 0, time.Local)
	notifier := &stubNotifier{}
	p, prefs := newTestPipeline(t, &stubWeather{reading: rainyReading()}, notifier, fixedClock{lateNight})

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.VerdictNeeded, res.Verdict)
	assert.False(t, res.Notified)
	assert.Equal(t, "outside notification window", res.Suppressed)
	assert.Empty(t, notifier.sent)

	st, err := prefs.Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.LastSentAtMs)
}

func TestPipelineSuppressedByMinimumSpacing(t *testing.T) {
	notifier := &stubNotifier{}
	p, prefs := newTestPipeline(t, &stubWeather{reading: rainyReading()}, notifier, fixedClock{midMorning})
	require.NoError(t, prefs.SetLastSentAt(context.Background(), midMorning.Add(-30*time.Minute)))

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Notified)
	assert.Equal(t, "minimum spacing not elapsed", res.Suppressed)
	assert.Empty(t, notifier.sent)
}

func TestPipelineSecondRunWithinMinuteDoesNotNotifyAgain(t *testing.T) {
	notifier := &stubNotifier{}
	p, _ := newTestPipeline(t, &stubWeather{reading: rainyReading()}, notifier, fixedClock{midMorning})

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	require.True(t, first.Notified)

	second, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, second.Notified)
	assert.Equal(t, "minimum spacing not elapsed", second.Suppressed)
	assert.Len(t, notifier.sent, 1)
}

func TestPipelineLocationFailureIsRetryable(t *testing.T) {
	prefs := state.NewPreferences(newMemStore())
	p := NewPipeline(PipelineConfig{
		Location: &stubLocation{err: types.NewAppError(types.ErrCodeLocationUnavailable, "no fix", nil)},
		Weather:  &stubWeather{reading: rainyReading()},
		Notifier: &stubNotifier{},
		Prefs:    prefs,
		Clock:    fixedClock{midMorning},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeLocationUnavailable, types.CodeOf(err))
	assert.True(t, types.IsRetryable(err))
}

func TestPipelineFetchFailureIsRetryable(t *testing.T) {
	weather := &stubWeather{
		reading:     rainyReading(),
		forecastErr: types.NewAppError(types.ErrCodeFetchFailed, "upstream down", nil),
	}
	notifier := &stubNotifier{}
	p, prefs := newTestPipeline(t, weather, notifier, fixedClock{midMorning})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeFetchFailed, types.CodeOf(err))
	assert.True(t, types.IsRetryable(err))
	assert.Empty(t, notifier.sent)

	st, err := prefs.Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.LastSentAtMs)
}

func TestPipelineNotifyFailureDoesNotRecordSend(t *testing.T) {
	notifier := &stubNotifier{err: types.NewAppError(types.ErrCodeNotifyFailed, "webhook rejected", nil)}
	p, prefs := newTestPipeline(t, &stubWeather{reading: rainyReading()}, notifier, fixedClock{midMorning})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeNotifyFailed, types.CodeOf(err))
	assert.False(t, types.IsRetryable(err))

	st, err := prefs.Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.LastSentAtMs, "failed delivery must not advance the spacing clock")
}

func TestPipelineCancelledBeforeStart(t *testing.T) {
	p, _ := newTestPipeline(t, &stubWeather{reading: rainyReading()}, &stubNotifier{}, fixedClock{midMorning})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Hold the gate so the cancelled context is what Run observes.
	<-p.runGate
	_, err := p.Run(ctx)
	p.runGate <- struct{}{}

	require.Error(t, err)
	assert.Equal(t, types.ErrCodeInternal, types.CodeOf(err))
}

func TestPipelineRecordsHistory(t *testing.T) {
	store, err := state.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer store.Close()

	prefs := state.NewPreferences(store)
	recorder := history.NewRecorder(store.DB())
	p := NewPipeline(PipelineConfig{
		Location: &stubLocation{coord: types.Coordinates{Latitude: 35.67, Longitude: 139.65}},
		Weather:  &stubWeather{reading: rainyReading()},
		Notifier: &stubNotifier{},
		Prefs:    prefs,
		History:  recorder,
		Clock:    fixedClock{midMorning},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	require.True(t, res.Notified)

	entries, err := recorder.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.CycleID, entries[0].CycleID)
}
