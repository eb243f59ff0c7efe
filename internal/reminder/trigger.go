package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/panics"
)

// Period is the spacing between scheduled passes.
const Period = time.Hour

// State reports whether a pass is in progress.
type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// PassRunner runs a single pass. Dispatcher satisfies it.
type PassRunner interface {
	RunPass(ctx context.Context) (PassResult, error)
}

// TriggerConfig holds the Trigger's collaborators. Zero values fall back to
// the wall clock and time.After.
type TriggerConfig struct {
	Clock   Clock
	After   func(d time.Duration) <-chan time.Time
	Metrics *Metrics
}

// Trigger starts a pass at startup and then at every UTC hour boundary.
// A tick that arrives while a pass is running is dropped.
type Trigger struct {
	runner  PassRunner
	clock   Clock
	after   func(d time.Duration) <-chan time.Time
	logger  *slog.Logger
	metrics *Metrics

	started atomic.Bool
	state   atomic.Int32
	wg      sync.WaitGroup
}

// NewTrigger creates a Trigger for runner.
func NewTrigger(runner PassRunner, config TriggerConfig, logger *slog.Logger) *Trigger {
	if config.Clock == nil {
		config.Clock = SystemClock
	}
	if config.After == nil {
		config.After = time.After
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Trigger{
		runner:  runner,
		clock:   config.Clock,
		after:   config.After,
		logger:  logger.With("component", "reminder_trigger"),
		metrics: config.Metrics,
	}
}

// NextTick returns the first UTC hour boundary strictly after now.
func NextTick(now time.Time) time.Time {
	return now.UTC().Truncate(Period).Add(Period)
}

// State reports the current pass state.
func (t *Trigger) State() State {
	return State(t.state.Load())
}

// Start runs a pass immediately and schedules the hourly ticks until ctx is
// cancelled. It returns at once. Calling Start again has no effect.
func (t *Trigger) Start(ctx context.Context) {
	if !t.started.CompareAndSwap(false, true) {
		t.logger.Warn("reminder trigger already started")
		return
	}

	t.logger.Info("starting reminder trigger", "period", Period.String())

	t.wg.Add(1)
	go t.loop(ctx)
}

// Wait blocks until the schedule loop has exited and any in-flight pass has
// finished.
func (t *Trigger) Wait() {
	t.wg.Wait()
}

func (t *Trigger) loop(ctx context.Context) {
	defer t.wg.Done()

	t.fire(ctx, "startup")

	for {
		now := t.clock.Now()
		wait := NextTick(now).Sub(now)

		select {
		case <-ctx.Done():
			t.logger.Info("reminder trigger stopped")
			return
		case <-t.after(wait):
			t.fire(ctx, "schedule")
		}
	}
}

// fire starts a pass unless one is running. The pass is detached from ctx
// cancellation so shutdown lets it finish.
func (t *Trigger) fire(ctx context.Context, reason string) bool {
	if !t.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		t.logger.Warn("previous reminder pass still running, skipping tick", "reason", reason)
		t.metrics.skippedTick()
		return false
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer t.state.Store(int32(StateIdle))

		var pc panics.Catcher
		pc.Try(func() {
			if _, err := t.runner.RunPass(context.WithoutCancel(ctx)); err != nil {
				t.logger.Error("reminder pass failed", "reason", reason, "error", err)
			}
		})
		if r := pc.Recovered(); r != nil {
			t.logger.Error("reminder pass panicked",
				"reason", reason,
				"error", fmt.Sprint(r.Value),
				"stack", string(r.Stack))
		}
	}()
	return true
}

// StartIfEnabled starts trigger when enabled is true and logs why it did not
// otherwise. It reports whether the trigger was started.
func StartIfEnabled(ctx context.Context, enabled bool, trigger *Trigger, logger *slog.Logger) bool {
	if logger == nil {
		logger = slog.Default()
	}
	if !enabled {
		logger.Warn("mail credentials not configured, reminder emails disabled")
		return false
	}
	trigger.Start(ctx)
	return true
}
