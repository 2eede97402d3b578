package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.AutoStart)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "memory", cfg.Commerce.Backend)
	assert.Equal(t, 30*time.Second, cfg.Commerce.RequestTimeout)

	assert.True(t, cfg.Policy.AutoFulfillEnabled)
	assert.True(t, cfg.Policy.AutoAdCreationEnabled)
	assert.True(t, cfg.Policy.AutoCustomerServiceEnabled)
	assert.InDelta(t, 0.30, cfg.Policy.MinProfitMargin, 1e-9)
	assert.Equal(t, 10, cfg.Policy.MinDailySales)

	assert.Equal(t, time.Hour, cfg.Workflows.DiscoveryInterval)
	assert.Equal(t, 5*time.Minute, cfg.Workflows.DiscoveryPenalty)
	assert.Equal(t, 5*time.Minute, cfg.Workflows.FulfillmentInterval)
	assert.Equal(t, 3*time.Minute, cfg.Workflows.CustomerServiceInterval)
	assert.Equal(t, 6*time.Hour, cfg.Workflows.AdOptimizationInterval)
	assert.Equal(t, time.Hour, cfg.Workflows.AdOptimizationPenalty)
	assert.Equal(t, 3, cfg.Workflows.DiscoveryTopK)

	assert.Equal(t, ":8000", cfg.GetHTTPAddr())
	assert.Equal(t, ":9090", cfg.GetGRPCAddr())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("AUTO_FULFILL_ENABLED", "false")
	t.Setenv("MIN_PROFIT_MARGIN", "0.5")
	t.Setenv("FULFILLMENT_INTERVAL", "10s")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Policy.AutoFulfillEnabled)
	assert.InDelta(t, 0.5, cfg.Policy.MinProfitMargin, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.Workflows.FulfillmentInterval)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad port", "DROPSHIP_HTTP_PORT", "70000"},
		{"bad provider", "LLM_PROVIDER", "openai"},
		{"bad backend", "COMMERCE_BACKEND", "shopify"},
		{"bad margin", "MIN_PROFIT_MARGIN", "1.5"},
		{"zero interval", "FULFILLMENT_INTERVAL", "0s"},
		{"top-k above limit", "DISCOVERY_TOP_K", "9"},
		{"unparseable duration", "DISCOVERY_PENALTY", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate_RestBackendNeedsURL(t *testing.T) {
	t.Setenv("COMMERCE_BACKEND", "rest")
	t.Setenv("COMMERCE_BASE_URL", "not a url")

	_, err := Load()
	assert.Error(t, err)
}
