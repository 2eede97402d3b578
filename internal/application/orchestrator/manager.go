package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aescanero/dropship/internal/application/workers"
	"github.com/aescanero/dropship/pkg/domain"
	"github.com/aescanero/dropship/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrAlreadyRunning is returned by Initialize while runners are live
	ErrAlreadyRunning = errors.New("orchestrator is already running")
	// ErrNotRunning is returned by Shutdown when nothing was started
	ErrNotRunning = errors.New("orchestrator is not running")
	// ErrStillStopping is returned by Initialize while runners of the
	// previous start have not exited yet
	ErrStillStopping = errors.New("orchestrator is still stopping")
)

// State is the lifecycle state of the manager
type State string

const (
	StateCreated State = "created"
	StateRunning State = "running"
	// StateStopping means a Shutdown gave up waiting on some runners
	StateStopping State = "stopping"
	StateStopped State = "stopped"
)

// Config holds the collaborators shared by every runner
type Config struct {
	Gate     workers.Gate
	Events   ports.EventBus
	Statuses ports.StatusStore
	Metrics  ports.MetricsCollector
	Logger   *zap.Logger

	HealthInterval time.Duration
}

// Option customizes a Manager
type Option func(*Manager)

// WithSleeper replaces the sleeper of every runner
func WithSleeper(s workers.Sleeper) Option {
	return func(m *Manager) {
		m.sleeper = s
	}
}

// RunnerResult reports how one runner ended during Shutdown
type RunnerResult struct {
	Workflow string        `json:"workflow"`
	State    workers.State `json:"state"`
	Err      error         `json:"-"`
	TimedOut bool          `json:"timed_out"`
}

// handle tracks one launched runner
type handle struct {
	runner *workers.Runner
	done   chan struct{}
	err    error
}

// wait blocks until the runner exits or ctx is done. A runner that has
// already exited is reported as such even when ctx is spent.
func (h *handle) wait(ctx context.Context) bool {
	select {
	case <-h.done:
		return true
	default:
	}

	select {
	case <-h.done:
		return true
	case <-ctx.Done():
		return false
	}
}

// generation is the set of runners launched by one Initialize
type generation struct {
	handles []*handle
	alive   atomic.Bool
	cancel  context.CancelFunc
}

// finished reports whether every runner of the generation has exited
func (g *generation) finished() bool {
	for _, h := range g.handles {
		select {
		case <-h.done:
		default:
			return false
		}
	}
	return true
}

// Manager starts and stops the workflow runners
type Manager struct {
	specs   []workers.Spec
	cfg     Config
	sleeper workers.Sleeper
	health  *workers.HealthMonitor
	logger  *zap.Logger

	// mu serializes Initialize and Shutdown
	mu sync.Mutex

	// queries never take mu, so they do not wait behind a shutdown
	viewMu    sync.RWMutex
	state     State
	startedAt time.Time
	current   atomic.Pointer[generation]
}

// NewManager validates specs and creates a manager in the created state
func NewManager(specs []workers.Spec, cfg Config, opts ...Option) (*Manager, error) {
	if err := NewValidator().Validate(specs); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if cfg.Gate == nil {
		return nil, fmt.Errorf("policy gate is required")
	}
	if cfg.Metrics == nil {
		return nil, fmt.Errorf("metrics collector is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = 30 * time.Second
	}

	m := &Manager{
		specs:   append([]workers.Spec(nil), specs...),
		cfg:     cfg,
		sleeper: workers.Sleep,
		logger:  cfg.Logger,
		state:   StateCreated,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.health = workers.NewHealthMonitor(m, cfg.Metrics, cfg.HealthInterval, cfg.Logger)

	return m, nil
}

// Initialize launches one runner per workflow and returns once they are
// scheduled. It does not wait for any tick.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.State() {
	case StateRunning:
		return ErrAlreadyRunning
	case StateStopping:
		return ErrStillStopping
	}

	m.logger.Info("initializing automation orchestrator",
		zap.Int("workflows", len(m.specs)))

	runCtx, cancel := context.WithCancel(context.Background())
	gen := &generation{cancel: cancel}
	gen.alive.Store(true)

	for _, spec := range m.specs {
		runner := workers.NewRunner(spec, workers.RunnerConfig{
			Gate:     m.cfg.Gate,
			Events:   m.cfg.Events,
			Statuses: m.cfg.Statuses,
			Metrics:  m.cfg.Metrics,
			Logger:   m.logger,
			Sleeper:  m.sleeper,
			Alive:    gen.alive.Load,
		})
		gen.handles = append(gen.handles, &handle{runner: runner, done: make(chan struct{})})
	}

	m.current.Store(gen)
	for _, h := range gen.handles {
		go func(h *handle) {
			defer close(h.done)
			h.err = h.runner.Run(runCtx)
		}(h)
	}

	m.viewMu.Lock()
	m.state = StateRunning
	m.startedAt = time.Now()
	m.viewMu.Unlock()
	m.cfg.Metrics.SetRunnersActive(len(gen.handles))
	m.health.Start()

	m.publish(ctx, domain.EventTypeOrchestratorStarted, map[string]interface{}{
		"workflows": m.names(),
	})

	m.logger.Info("automation orchestrator initialized and running")
	return nil
}

// Shutdown flips the running flag, cancels every runner and waits for
// them until ctx expires. Runners still alive at that point are reported
// with TimedOut set and the manager stays stopping until they exit;
// calling Shutdown again waits for them once more.
func (m *Manager) Shutdown(ctx context.Context) ([]RunnerResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.State()
	if state != StateRunning && state != StateStopping {
		return nil, ErrNotRunning
	}

	gen := m.current.Load()
	if state == StateRunning {
		m.logger.Info("shutting down automation orchestrator")
		gen.alive.Store(false)
		gen.cancel()
		m.health.Stop()
	} else {
		m.logger.Info("waiting for runners still stopping")
	}

	results := make([]RunnerResult, 0, len(gen.handles))
	timedOut := 0
	for _, h := range gen.handles {
		res := RunnerResult{Workflow: h.runner.Name()}
		if h.wait(ctx) {
			res.Err = h.err
		} else {
			res.TimedOut = true
			res.Err = ctx.Err()
			timedOut++
		}
		res.State = h.runner.State()
		results = append(results, res)
	}

	next := StateStopped
	if timedOut > 0 {
		next = StateStopping
	}
	m.viewMu.Lock()
	m.state = next
	m.viewMu.Unlock()
	m.cfg.Metrics.SetRunnersActive(timedOut)

	// ctx may already be spent on the wait
	pubCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	m.publish(pubCtx, domain.EventTypeOrchestratorStopped, map[string]interface{}{
		"workflows": m.names(),
		"timed_out": timedOut,
	})

	if timedOut > 0 {
		m.logger.Warn("automation orchestrator shut down with runners still active",
			zap.Int("timed_out", timedOut))
		return results, fmt.Errorf("%d runners did not stop in time: %w", timedOut, ctx.Err())
	}

	m.logger.Info("automation orchestrator shut down")
	return results, nil
}

// Running reports whether runners are live
func (m *Manager) Running() bool {
	return m.State() == StateRunning
}

// State returns the lifecycle state. A stopping manager becomes stopped
// once the last lagging runner has exited.
func (m *Manager) State() State {
	m.viewMu.RLock()
	state := m.state
	m.viewMu.RUnlock()

	if state != StateStopping {
		return state
	}
	if gen := m.current.Load(); gen == nil || !gen.finished() {
		return state
	}

	m.viewMu.Lock()
	defer m.viewMu.Unlock()
	if m.state == StateStopping {
		m.state = StateStopped
		m.cfg.Metrics.SetRunnersActive(0)
	}
	return m.state
}

// StartedAt returns when the last Initialize happened, or the zero time
func (m *Manager) StartedAt() time.Time {
	m.viewMu.RLock()
	defer m.viewMu.RUnlock()
	return m.startedAt
}

// RunnerStates returns the state of every runner of the current
// generation. Before the first start every workflow is idle.
func (m *Manager) RunnerStates() map[string]workers.State {
	states := make(map[string]workers.State, len(m.specs))
	gen := m.current.Load()
	if gen == nil {
		for _, spec := range m.specs {
			states[spec.Name] = workers.StateIdle
		}
		return states
	}
	for _, h := range gen.handles {
		states[h.runner.Name()] = h.runner.State()
	}
	return states
}

// Status returns the bookkeeping of every workflow in start order
func (m *Manager) Status() []domain.WorkflowStatus {
	gen := m.current.Load()
	out := make([]domain.WorkflowStatus, 0, len(m.specs))
	if gen == nil {
		for _, spec := range m.specs {
			out = append(out, domain.WorkflowStatus{
				Workflow: spec.Name,
				State:    string(workers.StateIdle),
			})
		}
		return out
	}
	for _, h := range gen.handles {
		out = append(out, h.runner.Status())
	}
	return out
}

// WorkflowStatus returns the bookkeeping of one workflow
func (m *Manager) WorkflowStatus(name string) (domain.WorkflowStatus, error) {
	for _, status := range m.Status() {
		if status.Workflow == name {
			return status, nil
		}
	}
	return domain.WorkflowStatus{}, fmt.Errorf("workflow %s: %w", name, domain.ErrNotFound)
}

// Health returns the health summary of the runners
func (m *Manager) Health() *workers.HealthStatus {
	return m.health.GetStatus()
}

func (m *Manager) names() []string {
	names := make([]string, 0, len(m.specs))
	for _, spec := range m.specs {
		names = append(names, spec.Name)
	}
	return names
}

func (m *Manager) publish(ctx context.Context, eventType domain.EventType, data map[string]interface{}) {
	if m.cfg.Events == nil {
		return
	}

	event := domain.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
	if err := m.cfg.Events.Publish(ctx, domain.TopicOrchestratorEvents, event); err != nil {
		m.logger.Error("failed to publish orchestrator event",
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}
