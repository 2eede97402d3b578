// Package noop provides a metrics collector that discards everything.
package noop

import (
	"time"

	"github.com/aescanero/dropship/pkg/domain"
)

// Collector implements MetricsCollector without recording anything
type Collector struct{}

// NewCollector creates a no-op metrics collector
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) RecordTick(workflow string, outcome domain.Outcome, duration time.Duration) {}

func (c *Collector) RecordItem(workflow string, outcome domain.Outcome) {}

func (c *Collector) RecordRunnerStates(counts map[string]int) {}

func (c *Collector) SetRunnersActive(count int) {}

func (c *Collector) RecordPolicyReload(success bool) {}

func (c *Collector) RecordExternalCall(service, operation string, success bool, duration time.Duration) {
}
