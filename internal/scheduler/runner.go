package scheduler

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"umbrella/internal/types"
)

// TaskState is the lifecycle state of a scheduled task as seen by status
// queries.
type TaskState string

const (
	// StateIdle means the task is registered and waiting for its next tick.
	StateIdle TaskState = "idle"
	// StateRunning means a cycle is executing right now.
	StateRunning TaskState = "running"
	// StateSuccess means the most recent cycle completed without error.
	StateSuccess TaskState = "success"
	// StateRetryWait means the last cycle hit a transient failure and the
	// task is waiting out its backoff before re-running.
	StateRetryWait TaskState = "retry_wait"
	// StateFailed means the last cycle hit a non-retryable error; the task
	// stays failed until the next periodic tick starts fresh.
	StateFailed TaskState = "failed"
)

// Status is a point-in-time snapshot of a scheduled task.
type Status struct {
	Name                string    `json:"name"`
	State               TaskState `json:"state"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastError           string    `json:"last_error,omitempty"`
	LastRun             *Result   `json:"last_run,omitempty"`
	NextRunAt           time.Time `json:"next_run_at,omitzero"`
}

// sleepFunc blocks for d or until ctx is done. It returns false when the
// wait was interrupted by cancellation.
type sleepFunc func(ctx context.Context, d time.Duration) bool

func realSleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Runner executes a CycleRunner on the periodic schedule described by a
// TaskSpec. Each tick fires within [Interval-Flex, Interval] of the previous
// one. Transient cycle failures are retried with linear backoff
// (BackoffBase, 2*BackoffBase, ...) until a retry would land past the next
// periodic tick, at which point the tick itself supersedes the retry chain.
type Runner struct {
	spec   types.TaskSpec
	cycle  CycleRunner
	clock  types.Clock
	logger *slog.Logger
	sleep  sleepFunc

	mu     sync.Mutex
	status Status
	cancel context.CancelFunc
	done   chan struct{}
}

// RunnerConfig holds the configuration for creating a Runner.
type RunnerConfig struct {
	Spec   types.TaskSpec
	Cycle  CycleRunner
	Clock  types.Clock
	Logger *slog.Logger

	// Sleep overrides the wait primitive. Tests inject a fake; production
	// leaves it nil for the real timer.
	Sleep sleepFunc
}

// NewRunner creates a Runner. It does not start the schedule; call Start.
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = realSleep
	}
	return &Runner{
		spec:   cfg.Spec,
		cycle:  cfg.Cycle,
		clock:  clock,
		logger: logger,
		sleep:  sleep,
		status: Status{Name: cfg.Spec.Name, State: StateIdle},
	}
}

// Start launches the schedule loop in its own goroutine. Starting an
// already-started runner is a no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.loop(runCtx)
}

// Stop cancels the schedule and waits for the loop goroutine to exit. An
// in-flight cycle observes the cancellation through its context.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Status returns a snapshot of the task's current state.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)
	for {
		delay := r.nextDelay()
		r.setNextRun(r.clock.Now().Add(delay))
		if !r.sleep(ctx, delay) {
			return
		}
		r.runTick(ctx)
		if ctx.Err() != nil {
			return
		}
	}
}

// nextDelay returns the wait before the next tick, jittered inside the flex
// window so repeated processes do not all fire at the same instant.
func (r *Runner) nextDelay() time.Duration {
	d := r.spec.Interval
	if r.spec.Flex > 0 && r.spec.Flex < d {
		d -= rand.N(r.spec.Flex)
	}
	return d
}

// runTick drives one tick: the cycle plus its linear-backoff retry chain.
// The chain ends when the cycle succeeds, fails terminally, is cancelled,
// or the next retry would land past the next periodic tick.
func (r *Runner) runTick(ctx context.Context) {
	tickStart := r.clock.Now()
	deadline := tickStart.Add(r.spec.Interval)

	for attempt := 1; ; attempt++ {
		r.transition(StateRunning)
		res, err := r.cycle.Run(ctx)
		if ctx.Err() != nil {
			// Cancellation mid-cycle: report nothing, mutate nothing.
			return
		}
		if err == nil {
			r.recordSuccess(res)
			return
		}

		if !types.IsRetryable(err) {
			r.recordFailure(StateFailed, err)
			r.logger.ErrorContext(ctx, "cycle failed",
				"task", r.spec.Name,
				"error", err,
			)
			return
		}

		r.recordFailure(StateRetryWait, err)
		backoff := r.spec.BackoffBase * time.Duration(attempt)
		if r.clock.Now().Add(backoff).After(deadline) {
			// The next periodic tick arrives before the retry would; let
			// it take over instead of stacking a late retry on top.
			r.logger.WarnContext(ctx, "cycle retry deferred to next tick",
				"task", r.spec.Name,
				"attempt", attempt,
				"error", err,
			)
			return
		}
		r.logger.WarnContext(ctx, "cycle retrying",
			"task", r.spec.Name,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)
		if !r.sleep(ctx, backoff) {
			return
		}
	}
}

func (r *Runner) transition(s TaskState) {
	r.mu.Lock()
	r.status.State = s
	r.mu.Unlock()
}

func (r *Runner) setNextRun(t time.Time) {
	r.mu.Lock()
	r.status.NextRunAt = t
	r.mu.Unlock()
}

func (r *Runner) recordSuccess(res Result) {
	r.mu.Lock()
	r.status.State = StateSuccess
	r.status.ConsecutiveFailures = 0
	r.status.LastError = ""
	r.status.LastRun = &res
	r.mu.Unlock()
}

func (r *Runner) recordFailure(s TaskState, err error) {
	r.mu.Lock()
	r.status.State = s
	r.status.ConsecutiveFailures++
	r.status.LastError = err.Error()
	r.mu.Unlock()
}

// Registry tracks named periodic tasks. Registering a spec under a name that
// already exists replaces the previous task: the old runner is stopped
// before the new one starts, so at most one task per name is ever live.
type Registry struct {
	clock  types.Clock
	logger *slog.Logger

	mu    sync.Mutex
	tasks map[string]*Runner
}

// RegistryConfig holds the configuration for creating a Registry.
type RegistryConfig struct {
	Clock  types.Clock
	Logger *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Registry{
		clock:  clock,
		logger: logger,
		tasks:  make(map[string]*Runner),
	}
}

// Register schedules cycle under spec.Name and returns its runner. If a task
// with the same name is already scheduled it is stopped and replaced.
func (g *Registry) Register(ctx context.Context, spec types.TaskSpec, cycle CycleRunner) *Runner {
	g.mu.Lock()
	prev := g.tasks[spec.Name]
	g.mu.Unlock()
	if prev != nil {
		g.logger.InfoContext(ctx, "replacing scheduled task", "task", spec.Name)
		prev.Stop()
	}

	runner := NewRunner(RunnerConfig{
		Spec:   spec,
		Cycle:  cycle,
		Clock:  g.clock,
		Logger: g.logger,
	})
	g.mu.Lock()
	g.tasks[spec.Name] = runner
	g.mu.Unlock()

	runner.Start(ctx)
	g.logger.InfoContext(ctx, "task scheduled",
		"task", spec.Name,
		"interval", spec.Interval,
		"flex", spec.Flex,
	)
	return runner
}

// Cancel stops and removes the named task. It reports whether a task was
// scheduled under that name.
func (g *Registry) Cancel(name string) bool {
	g.mu.Lock()
	runner, ok := g.tasks[name]
	delete(g.tasks, name)
	g.mu.Unlock()
	if !ok {
		return false
	}
	runner.Stop()
	return true
}

// IsScheduled reports whether a task with the given name is registered.
func (g *Registry) IsScheduled(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.tasks[name]
	return ok
}

// Status returns the named task's snapshot.
func (g *Registry) Status(name string) (Status, bool) {
	g.mu.Lock()
	runner, ok := g.tasks[name]
	g.mu.Unlock()
	if !ok {
		return Status{}, false
	}
	return runner.Status(), true
}

// Shutdown stops every registered task and empties the registry.
func (g *Registry) Shutdown() {
	g.mu.Lock()
	tasks := g.tasks
	g.tasks = make(map[string]*Runner)
	g.mu.Unlock()
	for _, runner := range tasks {
		runner.Stop()
	}
}
