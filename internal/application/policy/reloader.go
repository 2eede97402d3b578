package policy

import (
	"context"
	"sync"
	"time"

	"github.com/aescanero/dropship/pkg/ports"
	"go.uber.org/zap"
)

// Reloader periodically applies overrides from a policy source on top of
// the baseline snapshot
type Reloader struct {
	store    *Store
	baseline Snapshot
	source   ports.PolicySource
	metrics  ports.MetricsCollector
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewReloader creates a new policy reloader
func NewReloader(
	store *Store,
	baseline Snapshot,
	source ports.PolicySource,
	metrics ports.MetricsCollector,
	interval time.Duration,
	logger *zap.Logger,
) *Reloader {
	return &Reloader{
		store:    store,
		baseline: baseline,
		source:   source,
		metrics:  metrics,
		interval: interval,
		logger:   logger,
	}
}

// Start loads the overrides once and then keeps polling in the background
func (r *Reloader) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	r.mu.Unlock()

	_ = r.Reload(ctx)
	go r.run(ctx)
}

// Stop stops polling and waits for the loop to exit
func (r *Reloader) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.cancel()
	done := r.done
	r.mu.Unlock()

	<-done
}

func (r *Reloader) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.Reload(ctx)
		}
	}
}

// Reload fetches overrides once and swaps the snapshot. On failure the
// previous snapshot stays in place.
func (r *Reloader) Reload(ctx context.Context) error {
	overrides, err := r.source.LoadOverrides(ctx)
	if err != nil {
		r.logger.Warn("failed to load policy overrides, keeping current policy", zap.Error(err))
		r.metrics.RecordPolicyReload(false)
		return err
	}

	next, err := r.baseline.Apply(overrides)
	if err != nil {
		r.logger.Warn("rejected policy overrides, keeping current policy", zap.Error(err))
		r.metrics.RecordPolicyReload(false)
		return err
	}

	if prev := r.store.Load(); prev != next {
		r.logger.Info("policy updated",
			zap.Bool("auto_fulfill_enabled", next.AutoFulfillEnabled),
			zap.Bool("auto_ad_creation_enabled", next.AutoAdCreationEnabled),
			zap.Bool("auto_customer_service_enabled", next.AutoCustomerServiceEnabled),
			zap.Bool("auto_discovery_enabled", next.AutoDiscoveryEnabled),
			zap.Float64("min_profit_margin", next.MinProfitMargin))
	}
	r.store.Swap(next)
	r.metrics.RecordPolicyReload(true)
	return nil
}
