package workers

import (
	"sync"
	"time"

	"github.com/aescanero/dropship/pkg/ports"
	"go.uber.org/zap"
)

// StateReader exposes the current state of every runner
type StateReader interface {
	RunnerStates() map[string]State
}

// HealthMonitor monitors runner health
type HealthMonitor struct {
	source   StateReader
	metrics  ports.MetricsCollector
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// HealthStatus represents the health status of the runners
type HealthStatus struct {
	TotalRunners     int       `json:"total_runners"`
	ActiveRunners    int       `json:"active_runners"`
	BackoffRunners   int       `json:"backoff_runners"`
	CancelledRunners int       `json:"cancelled_runners"`
	Healthy          bool      `json:"healthy"`
	Timestamp        time.Time `json:"timestamp"`
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor(source StateReader, metrics ports.MetricsCollector, interval time.Duration, logger *zap.Logger) *HealthMonitor {
	return &HealthMonitor{
		source:   source,
		metrics:  metrics,
		interval: interval,
		logger:   logger,
	}
}

// Start starts the health monitor
func (h *HealthMonitor) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	h.stopCh = make(chan struct{})
	h.doneCh = make(chan struct{})

	go h.run(h.stopCh, h.doneCh)
}

// Stop stops the health monitor and waits for its loop to exit
func (h *HealthMonitor) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	close(h.stopCh)
	done := h.doneCh
	h.mu.Unlock()

	<-done
}

// run is the main health monitoring loop
func (h *HealthMonitor) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			h.checkHealth()
		}
	}
}

// checkHealth checks runner health and logs status
func (h *HealthMonitor) checkHealth() {
	states := h.source.RunnerStates()
	status := summarize(states)

	h.logger.Info("workflow runners health check",
		zap.Int("total", status.TotalRunners),
		zap.Int("active", status.ActiveRunners),
		zap.Int("backoff", status.BackoffRunners),
		zap.Int("cancelled", status.CancelledRunners),
		zap.Bool("healthy", status.Healthy))

	// Record metrics
	counts := make(map[string]int)
	for _, s := range states {
		counts[string(s)]++
	}
	h.metrics.RecordRunnerStates(counts)

	// Warn about runners recovering from a failed tick
	for name, s := range states {
		if s == StateBackoff {
			h.logger.Warn("workflow runner is backing off after a failed tick",
				zap.String("workflow", name))
		}
	}
}

// GetStatus returns the current health status
func (h *HealthMonitor) GetStatus() *HealthStatus {
	return summarize(h.source.RunnerStates())
}

// IsHealthy returns true if no runner is backing off or stopped
func (h *HealthMonitor) IsHealthy() bool {
	return h.GetStatus().Healthy
}

func summarize(states map[string]State) *HealthStatus {
	var backoff, cancelled int
	for _, s := range states {
		switch s {
		case StateBackoff:
			backoff++
		case StateCancelled:
			cancelled++
		}
	}

	total := len(states)
	return &HealthStatus{
		TotalRunners:     total,
		ActiveRunners:    total - cancelled,
		BackoffRunners:   backoff,
		CancelledRunners: cancelled,
		Healthy:          total > 0 && backoff == 0 && cancelled == 0,
		Timestamp:        time.Now(),
	}
}
