package prometheus

import (
	"testing"
	"time"

	"github.com/aescanero/dropship/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTick("order_fulfillment", domain.OutcomeSuccess, 2*time.Second)
	c.RecordTick("order_fulfillment", domain.OutcomeSuccess, time.Second)
	c.RecordTick("order_fulfillment", domain.OutcomeDisabled, 0)
	c.RecordItem("order_fulfillment", domain.OutcomeError)
	c.RecordRunnerStates(map[string]int{"sleeping": 3, "backoff": 1})
	c.SetRunnersActive(4)
	c.RecordPolicyReload(false)
	c.RecordExternalCall("commerce", "fulfill_order", true, 100*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.ticks.WithLabelValues("order_fulfillment", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ticks.WithLabelValues("order_fulfillment", "disabled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.items.WithLabelValues("order_fulfillment", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.runnerState.WithLabelValues("sleeping")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.runnerState.WithLabelValues("acting")))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.runnersActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.policyReloads.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.externalCalls.WithLabelValues("commerce", "fulfill_order", "true")))

	// skipped ticks are not timed
	count, err := testutil.GatherAndCount(reg, "dropship_workflow_tick_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewCollector_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCollector(prometheus.NewRegistry())
		NewCollector(prometheus.NewRegistry())
	})
}
