package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/redact"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

// ErrCandidateQuery marks a pass that could not load its candidates.
var ErrCandidateQuery = errors.New("reminder candidate query failed")

// Outcome is the per-task result of a pass.
type Outcome int

const (
	OutcomeSent Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// PassResult summarises one pass.
type PassResult struct {
	StartedAt  time.Time
	Duration   time.Duration
	Candidates int
	Sent       int
	Skipped    int
	Failed     int
}

// DispatcherConfig tunes delivery.
type DispatcherConfig struct {
	// Concurrency bounds how many candidates are processed at once.
	// Values below 1 mean sequential.
	Concurrency int

	// SendTimeout bounds how long the dispatcher waits on a single notifier
	// call. Zero means no limit. The SMTP notifier cannot abort a delivery in
	// flight, so a message that times out may still arrive; the task is counted
	// failed and is sent again on the next pass.
	SendTimeout time.Duration
}

// DefaultDispatcherConfig processes candidates one at a time with a 30s send timeout.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Concurrency: 1,
		SendTimeout: 30 * time.Second,
	}
}

// Dispatcher runs reminder passes.
type Dispatcher struct {
	store    Store
	notifier Notifier
	clock    Clock
	config   DispatcherConfig
	logger   *slog.Logger
	metrics  *Metrics
}

// NewDispatcher creates a Dispatcher. A nil clock means SystemClock and a nil
// metrics disables instrumentation.
func NewDispatcher(
	s Store,
	n Notifier,
	clock Clock,
	config DispatcherConfig,
	logger *slog.Logger,
	metrics *Metrics,
) *Dispatcher {
	if clock == nil {
		clock = SystemClock
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:    s,
		notifier: n,
		clock:    clock,
		config:   config,
		logger:   logger.With("component", "reminder_dispatcher"),
		metrics:  metrics,
	}
}

// RunPass sends every reminder that is due at the current instant.
//
// A candidate query failure aborts the pass and is returned. Failures for a
// single task are logged, counted and leave the task eligible for the next pass.
func (d *Dispatcher) RunPass(ctx context.Context) (PassResult, error) {
	now := d.clock.Now().UTC()
	window := NewWindow(now)
	result := PassResult{StartedAt: now}
	log := d.logger.With("pass_at", now)

	candidates, err := d.store.FindDueCandidates(ctx, window.Start, window.End)
	if err != nil {
		result.Duration = d.clock.Now().Sub(now)
		log.Error("failed to load reminder candidates", "error", err)
		d.metrics.observePass(result, err)
		return result, fmt.Errorf("%w: %w", ErrCandidateQuery, err)
	}
	result.Candidates = len(candidates)

	if len(candidates) > 0 {
		log.Info("processing reminder candidates", "count", len(candidates))

		outcomes := make([]Outcome, len(candidates))
		p := pool.New().WithMaxGoroutines(d.config.Concurrency)
		for i, task := range candidates {
			p.Go(func() {
				outcomes[i] = d.remindSafely(ctx, log, now, task)
			})
		}
		p.Wait()

		for _, o := range outcomes {
			switch o {
			case OutcomeSent:
				result.Sent++
			case OutcomeSkipped:
				result.Skipped++
			default:
				result.Failed++
			}
		}
	}

	result.Duration = d.clock.Now().Sub(now)
	log.Info("reminder pass complete",
		"candidates", result.Candidates,
		"sent", result.Sent,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration_ms", result.Duration.Milliseconds())
	d.metrics.observePass(result, nil)

	return result, nil
}

// remindSafely runs remind and turns a panic into a failed outcome for that
// task alone.
func (d *Dispatcher) remindSafely(
	ctx context.Context,
	log *slog.Logger,
	now time.Time,
	task *domain.Task,
) Outcome {
	outcome := OutcomeFailed
	var pc panics.Catcher
	pc.Try(func() { outcome = d.remind(ctx, log, now, task) })

	if r := pc.Recovered(); r != nil {
		log.Error("reminder panicked",
			"task_id", task.ID,
			"error", redact.String(fmt.Sprint(r.Value)),
			"stack", string(r.Stack))
		return OutcomeFailed
	}
	return outcome
}

func (d *Dispatcher) remind(
	ctx context.Context,
	log *slog.Logger,
	now time.Time,
	task *domain.Task,
) Outcome {
	log = log.With("task_id", task.ID, "user_id", task.UserID)

	owner, err := d.store.FindOwner(ctx, task.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Warn("task owner not found, skipping reminder")
			return OutcomeSkipped
		}
		log.Error("failed to load task owner", "error", err)
		return OutcomeFailed
	}
	if owner == nil {
		log.Warn("task owner not found, skipping reminder")
		return OutcomeSkipped
	}

	payload, err := NewPayload(task, owner)
	if err != nil {
		log.Error("failed to build reminder", "error", err)
		return OutcomeFailed
	}

	sendCtx := ctx
	if d.config.SendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.config.SendTimeout)
		defer cancel()
	}
	if err := d.notifier.SendReminder(sendCtx, payload); err != nil {
		log.Error("failed to send reminder", "error", redact.Error(err))
		return OutcomeFailed
	}

	err = d.store.MarkReminderSent(ctx, task.ID, payload.DueDate, now)
	if errors.Is(err, store.ErrReminderRearmed) {
		log.Info("task rescheduled during pass, reminder left armed", "due_date", payload.DueDate)
		return OutcomeSent
	}
	if err != nil {
		log.Error("reminder sent but not recorded, it may be sent again", "error", err)
		return OutcomeFailed
	}

	log.Info("reminder sent", "due_date", payload.DueDate)
	return OutcomeSent
}
