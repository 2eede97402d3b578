package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aescanero/dropship/pkg/domain"
	"github.com/aescanero/dropship/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State represents where a runner is in its loop
type State string

const (
	StateIdle      State = "idle"
	StateSleeping  State = "sleeping"
	StateGating    State = "gating"
	StateFetching  State = "fetching"
	StateActing    State = "acting"
	StateBackoff   State = "backoff"
	StateCancelled State = "cancelled"
)

// Gate decides whether a workflow may act this tick
type Gate interface {
	ShouldRun(workflow string) bool
}

// Sleeper blocks for d or until ctx is done, returning ctx.Err() in the
// latter case
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real Sleeper
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Spec describes one workflow. It is immutable once a runner is built.
type Spec struct {
	Name     string
	Interval time.Duration
	Penalty  time.Duration
	Pipeline Pipeline
}

// Validate checks that the spec can be scheduled
func (s Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("workflow name is required")
	}
	if s.Interval <= 0 {
		return fmt.Errorf("workflow %s: interval must be positive", s.Name)
	}
	if s.Penalty <= 0 {
		return fmt.Errorf("workflow %s: penalty must be positive", s.Name)
	}
	if s.Pipeline == nil {
		return fmt.Errorf("workflow %s: pipeline is required", s.Name)
	}
	return nil
}

// RunnerConfig holds the collaborators of a runner
type RunnerConfig struct {
	Gate     Gate
	Events   ports.EventBus
	Statuses ports.StatusStore
	Metrics  ports.MetricsCollector
	Logger   *zap.Logger

	// Sleeper defaults to Sleep
	Sleeper Sleeper
	// Alive is consulted after every sleep; returning false ends the
	// loop like a cancellation. Optional.
	Alive func() bool
}

// Runner drives one workflow: sleep, gate, fetch, act, repeat. Ticks of
// one runner never overlap.
type Runner struct {
	spec     Spec
	gate     Gate
	events   ports.EventBus
	statuses ports.StatusStore
	metrics  ports.MetricsCollector
	logger   *zap.Logger
	sleep    Sleeper
	alive    func() bool

	mu     sync.RWMutex
	state  State
	status domain.WorkflowStatus
}

// NewRunner creates a runner for spec
func NewRunner(spec Spec, cfg RunnerConfig) *Runner {
	sleeper := cfg.Sleeper
	if sleeper == nil {
		sleeper = Sleep
	}
	alive := cfg.Alive
	if alive == nil {
		alive = func() bool { return true }
	}

	return &Runner{
		spec:     spec,
		gate:     cfg.Gate,
		events:   cfg.Events,
		statuses: cfg.Statuses,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.With(zap.String("workflow", spec.Name)),
		sleep:    sleeper,
		alive:    alive,
		state:    StateIdle,
		status: domain.WorkflowStatus{
			Workflow: spec.Name,
			State:    string(StateIdle),
		},
	}
}

// Name returns the workflow name
func (r *Runner) Name() string {
	return r.spec.Name
}

// State returns the current state
func (r *Runner) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Status returns a copy of the runner's bookkeeping
func (r *Runner) Status() domain.WorkflowStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.status.State = string(s)
	r.mu.Unlock()
}

// Run loops until ctx is cancelled or Alive reports false. Cancellation
// is a normal termination and returns nil.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.spec.Validate(); err != nil {
		return err
	}

	r.logger.Info("workflow runner started",
		zap.Duration("interval", r.spec.Interval),
		zap.Duration("penalty", r.spec.Penalty))

	delay, next := r.spec.Interval, StateSleeping
	for {
		r.setState(next)
		if err := r.sleep(ctx, delay); err != nil || ctx.Err() != nil || !r.alive() {
			r.stop()
			return nil
		}
		delay, next = r.spec.Interval, StateSleeping

		r.setState(StateGating)
		if !r.gate.ShouldRun(r.spec.Name) {
			r.skip(ctx)
			continue
		}

		tick := &Tick{
			ID:       uuid.New().String(),
			Workflow: r.spec.Name,
			onPhase:  r.setState,
		}
		tick.Logger = r.logger.With(zap.String("tick_id", tick.ID))

		start := time.Now()
		report, err := r.runTick(ctx, tick)
		duration := time.Since(start)

		if err != nil {
			if err.Kind == KindCancelled {
				r.stop()
				return nil
			}
			r.fail(ctx, tick, err, duration)
			delay, next = r.spec.Penalty, StateBackoff
			continue
		}

		r.complete(ctx, tick, report, duration)
	}
}

// runTick runs the pipeline, turning a panic into a tick-level error
func (r *Runner) runTick(ctx context.Context, tick *Tick) (report *Report, err *TickError) {
	defer func() {
		if p := recover(); p != nil {
			report = nil
			err = classify(ctx, "tick", fmt.Errorf("panic: %v", p))
		}
	}()

	report, runErr := r.spec.Pipeline.Run(ctx, tick)
	if runErr != nil {
		return nil, classify(ctx, "tick", runErr)
	}
	if report == nil {
		report = &Report{TickID: tick.ID}
	}
	return report, nil
}

func (r *Runner) skip(ctx context.Context) {
	r.logger.Debug("workflow disabled by policy, skipping tick",
		zap.String("outcome", string(domain.OutcomeDisabled)))
	r.metrics.RecordTick(r.spec.Name, domain.OutcomeDisabled, 0)

	r.mu.Lock()
	r.status.LastOutcome = domain.OutcomeDisabled
	r.mu.Unlock()

	r.publish(ctx, domain.Event{
		Type:    domain.EventTypeTickSkipped,
		Outcome: domain.OutcomeDisabled,
	})
	r.saveStatus(ctx)
}

func (r *Runner) fail(ctx context.Context, tick *Tick, err *TickError, duration time.Duration) {
	tick.Logger.Error("workflow tick failed",
		zap.String("outcome", string(domain.OutcomeError)),
		zap.String("kind", string(err.Kind)),
		zap.Duration("penalty", r.spec.Penalty),
		zap.Error(err))
	r.metrics.RecordTick(r.spec.Name, domain.OutcomeError, duration)

	now := time.Now()
	r.mu.Lock()
	r.status.Ticks++
	r.status.LastTickID = tick.ID
	r.status.LastTickAt = &now
	r.status.LastOutcome = domain.OutcomeError
	r.status.LastError = err.Error()
	r.mu.Unlock()

	r.publish(ctx, domain.Event{
		Type:    domain.EventTypeTickFailed,
		TickID:  tick.ID,
		Outcome: domain.OutcomeError,
		Data: map[string]interface{}{
			"error": err.Error(),
			"kind":  string(err.Kind),
		},
	})
	r.saveStatus(ctx)
}

func (r *Runner) complete(ctx context.Context, tick *Tick, report *Report, duration time.Duration) {
	outcome := report.Outcome()
	succeeded, failed := report.Counts()

	tick.Logger.Info("workflow tick completed",
		zap.String("outcome", string(outcome)),
		zap.Int("fetched", report.Fetched),
		zap.Int("selected", report.Selected),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
		zap.Duration("duration", duration))
	r.metrics.RecordTick(r.spec.Name, outcome, duration)

	for _, item := range report.Items {
		r.metrics.RecordItem(r.spec.Name, item.Outcome)

		data := map[string]interface{}{"item": item.Key}
		if item.Detail != "" {
			data["detail"] = item.Detail
		}
		if item.Err != nil {
			data["error"] = item.Err.Error()
		}
		r.publish(ctx, domain.Event{
			Type:    domain.EventTypeItemCompleted,
			TickID:  tick.ID,
			Outcome: item.Outcome,
			Data:    data,
		})
	}

	now := time.Now()
	r.mu.Lock()
	r.status.Ticks++
	r.status.LastTickID = tick.ID
	r.status.LastTickAt = &now
	r.status.LastOutcome = outcome
	r.status.LastError = ""
	r.status.ItemsSucceeded += int64(succeeded)
	r.status.ItemsFailed += int64(failed)
	r.mu.Unlock()

	r.publish(ctx, domain.Event{
		Type:    domain.EventTypeTickCompleted,
		TickID:  tick.ID,
		Outcome: outcome,
		Data: map[string]interface{}{
			"fetched":   report.Fetched,
			"selected":  report.Selected,
			"succeeded": succeeded,
			"failed":    failed,
		},
	})
	r.saveStatus(ctx)
}

// stop records the terminal state. The loop context is already done, so
// the final status write gets its own short deadline.
func (r *Runner) stop() {
	r.setState(StateCancelled)
	r.logger.Info("workflow runner stopped",
		zap.String("outcome", string(domain.OutcomeCancelled)))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r.saveStatus(ctx)
}

func (r *Runner) publish(ctx context.Context, event domain.Event) {
	if r.events == nil {
		return
	}

	event.ID = uuid.New().String()
	event.Workflow = r.spec.Name
	event.Timestamp = time.Now()

	if err := r.events.Publish(ctx, domain.TopicWorkflowEvents, event); err != nil {
		r.logger.Warn("failed to publish workflow event",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}

func (r *Runner) saveStatus(ctx context.Context) {
	if r.statuses == nil {
		return
	}

	status := r.Status()
	status.UpdatedAt = time.Now()

	if err := r.statuses.SaveStatus(ctx, &status); err != nil {
		r.logger.Warn("failed to save workflow status", zap.Error(err))
	}
}
