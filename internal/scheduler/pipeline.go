// Package scheduler runs the periodic umbrella check: it owns the pipeline
// that turns a location fix and a weather fetch into a gated notification,
// and the runner/registry machinery that executes the pipeline on a jittered
// interval with linear backoff on transient failure.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"umbrella/internal/decide"
	"umbrella/internal/history"
	"umbrella/internal/policy"
	"umbrella/internal/state"
	"umbrella/internal/types"
	"umbrella/internal/weather"
)

// CycleRunner executes one check cycle. The Runner drives implementations of
// this interface; Pipeline is the production one.
type CycleRunner interface {
	Run(ctx context.Context) (Result, error)
}

// Result summarizes one completed cycle for status reporting and logging.
type Result struct {
	CycleID     string                `json:"cycle_id"`
	Verdict     types.UmbrellaVerdict `json:"verdict"`
	Probability int                   `json:"probability"`
	Notified    bool                  `json:"notified"`
	Suppressed  string                `json:"suppressed,omitempty"` // gate reason when a needed notification was withheld
	Reading     *types.WeatherReading `json:"reading,omitempty"`
	FinishedAt  time.Time             `json:"finished_at"`
}

// Pipeline is the production check cycle: resolve location, fetch current
// conditions and today's forecast concurrently, decide umbrella necessity,
// apply the notification gate, and deliver.
//
// Run is serialized with a mutex so a manually triggered check and a
// scheduled tick never interleave their reads and writes of the persisted
// notification state.
type Pipeline struct {
	location types.LocationProvider
	weather  types.WeatherSource
	notifier types.Notifier
	prefs    *state.Preferences
	history  *history.Recorder
	clock    types.Clock
	highPct  int
	logger   *slog.Logger

	runGate chan struct{}
}

// PipelineConfig holds the dependencies for creating a Pipeline.
type PipelineConfig struct {
	Location types.LocationProvider
	Weather  types.WeatherSource
	Notifier types.Notifier
	Prefs    *state.Preferences
	History  *history.Recorder // optional; nil disables the sent log
	Clock    types.Clock
	HighPct  int // NEEDED threshold; 0 means the stock default
	Logger   *slog.Logger
}

// NewPipeline creates a Pipeline with the given configuration.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	highPct := cfg.HighPct
	if highPct <= 0 {
		highPct = types.DefaultThresholds().HighPct
	}
	gate := make(chan struct{}, 1)
	gate <- struct{}{}
	return &Pipeline{
		location: cfg.Location,
		weather:  cfg.Weather,
		notifier: cfg.Notifier,
		prefs:    cfg.Prefs,
		history:  cfg.History,
		clock:    clock,
		highPct:  highPct,
		logger:   logger,
		runGate:  gate,
	}
}

// Run executes one cycle. Transient failures (location, fetch) surface as
// retryable AppErrors; the caller decides whether to back off. A cancelled
// or failing cycle leaves the persisted notification state untouched.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	select {
	case <-p.runGate:
		defer func() { p.runGate <- struct{}{} }()
	case <-ctx.Done():
		return Result{}, types.NewAppError(types.ErrCodeInternal, "cycle cancelled before start", ctx.Err())
	}

	cycleID := uuid.NewString()
	ctx = types.WithCycleID(ctx, cycleID)

	notifState, err := p.prefs.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("loading notification state: %w", err)
	}

	coord, err := p.location.Current(ctx)
	if err != nil {
		return Result{CycleID: cycleID}, err
	}

	var (
		reading  types.WeatherReading
		forecast []types.ForecastPoint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var ferr error
		reading, ferr = p.weather.FetchCurrent(gctx, coord)
		return ferr
	})
	g.Go(func() error {
		var ferr error
		forecast, ferr = p.weather.FetchForecast(gctx, coord)
		return ferr
	})
	if err := g.Wait(); err != nil {
		return Result{CycleID: cycleID}, err
	}

	if err := p.prefs.SetCachedReading(ctx, reading); err != nil {
		p.logger.WarnContext(ctx, "caching reading failed", "error", err)
	}

	th := types.Thresholds{LowPct: notifState.RainThresholdPct, HighPct: p.highPct}
	verdict, probability := decide.DecideReading(reading, th)
	if verdict == types.VerdictNotNeeded {
		// The current snapshot can miss rain arriving later in the day;
		// escalate to the wettest remaining interval when the forecast
		// disagrees.
		if pt, ok := wettestPoint(weather.TodayPoints(forecast, p.clock), th); ok {
			verdict, probability = decide.DecidePoint(pt, th)
		}
	}

	now := p.clock.Now()
	result := Result{
		CycleID:     cycleID,
		Verdict:     verdict,
		Probability: probability,
		Reading:     &reading,
		FinishedAt:  now,
	}

	p.logger.InfoContext(ctx, "cycle decided",
		"verdict", verdict,
		"probability", probability,
		"condition_code", reading.ConditionCode,
	)

	if verdict == types.VerdictNotNeeded {
		return result, nil
	}

	gate := policy.Evaluate(now, notifState)
	if !gate.Allowed {
		result.Suppressed = gate.Reason
		p.logger.InfoContext(ctx, "notification suppressed", "reason", gate.Reason)
		return result, nil
	}

	if ctx.Err() != nil {
		return Result{CycleID: cycleID}, types.NewAppError(types.ErrCodeInternal, "cycle cancelled before delivery", ctx.Err())
	}

	title, body := decide.DescribeVerdict(verdict, probability, now.Hour())
	notification := types.Notification{Title: title, Body: body, SentAt: now}
	if err := p.notifier.Send(ctx, notification); err != nil {
		return result, err
	}

	if err := p.prefs.SetLastSentAt(ctx, now); err != nil {
		return result, fmt.Errorf("recording send time: %w", err)
	}
	if p.history != nil {
		if err := p.history.Record(ctx, cycleID, notification); err != nil {
			p.logger.WarnContext(ctx, "recording notification history failed", "error", err)
		}
	}

	result.Notified = true
	p.logger.InfoContext(ctx, "notification sent", "title", title)
	return result, nil
}

// wettestPoint returns the forecast point with the highest precipitation
// probability among those that on their own clear at least the MAYBE bar.
func wettestPoint(points []types.ForecastPoint, th types.Thresholds) (types.ForecastPoint, bool) {
	var (
		best  types.ForecastPoint
		found bool
	)
	for _, pt := range points {
		if v, _ := decide.DecidePoint(pt, th); v == types.VerdictNotNeeded {
			continue
		}
		if !found || pt.Pop > best.Pop {
			best = pt
			found = true
		}
	}
	return best, found
}
