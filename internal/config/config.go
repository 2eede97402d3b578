package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the dropship orchestrator
type Config struct {
	// Server configuration
	HTTPPort  int    `env:"DROPSHIP_HTTP_PORT" envDefault:"8000"`
	GRPCPort  int    `env:"DROPSHIP_GRPC_PORT" envDefault:"9090"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	AutoStart bool   `env:"AUTOMATION_AUTOSTART" envDefault:"true"`

	// APIToken guards the control endpoints when set
	APIToken string `env:"DROPSHIP_API_TOKEN"`

	// Redis configuration
	Redis RedisConfig

	// LLM configuration
	LLM LLMConfig

	// Commerce backend configuration
	Commerce CommerceConfig

	// Policy gate baseline
	Policy PolicyConfig

	// Workflow schedules
	Workflows WorkflowsConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`

	PolicyKey string `env:"REDIS_POLICY_KEY" envDefault:"dropship:policy"`
}

// LLMConfig holds LLM provider configuration
type LLMConfig struct {
	// Provider is "anthropic" or "template". Without an API key the
	// template responder is used regardless.
	Provider string `env:"LLM_PROVIDER" envDefault:"anthropic"`
	APIKey   string `env:"LLM_API_KEY"`

	RequestTimeout time.Duration `env:"LLM_REQUEST_TIMEOUT" envDefault:"60s"`
	Model          string        `env:"LLM_MODEL" envDefault:"claude-3-5-sonnet-20241022"`
	MaxTokens      int64         `env:"LLM_MAX_TOKENS" envDefault:"200"`
	Temperature    float64       `env:"LLM_TEMPERATURE" envDefault:"0.7"`
}

// CommerceConfig selects and configures the commerce collaborators
type CommerceConfig struct {
	// Backend is "memory" or "rest"
	Backend        string        `env:"COMMERCE_BACKEND" envDefault:"memory"`
	BaseURL        string        `env:"COMMERCE_BASE_URL" envDefault:"http://localhost:8001/api/v1"`
	APIKey         string        `env:"COMMERCE_API_KEY"`
	RequestTimeout time.Duration `env:"COMMERCE_REQUEST_TIMEOUT" envDefault:"30s"`

	// Client-side rate limit
	RateLimit float64 `env:"COMMERCE_RATE_LIMIT" envDefault:"5"`
	RateBurst int     `env:"COMMERCE_RATE_BURST" envDefault:"10"`

	// Circuit breaker
	BreakerMaxFailures uint32        `env:"COMMERCE_BREAKER_MAX_FAILURES" envDefault:"5"`
	BreakerTimeout     time.Duration `env:"COMMERCE_BREAKER_TIMEOUT" envDefault:"60s"`
}

// PolicyConfig is the baseline policy snapshot. Values may be overridden
// at runtime through the policy source.
type PolicyConfig struct {
	AutoFulfillEnabled         bool          `env:"AUTO_FULFILL_ENABLED" envDefault:"true"`
	AutoAdCreationEnabled      bool          `env:"AUTO_AD_CREATION_ENABLED" envDefault:"true"`
	AutoCustomerServiceEnabled bool          `env:"AUTO_CUSTOMER_SERVICE_ENABLED" envDefault:"true"`
	AutoDiscoveryEnabled       bool          `env:"AUTO_DISCOVERY_ENABLED" envDefault:"true"`
	MinProfitMargin            float64       `env:"MIN_PROFIT_MARGIN" envDefault:"0.30"`
	MinDailySales              int           `env:"MIN_DAILY_SALES" envDefault:"10"`
	MaxProductPrice            float64       `env:"MAX_PRODUCT_PRICE" envDefault:"100"`
	ReloadInterval             time.Duration `env:"POLICY_RELOAD_INTERVAL" envDefault:"30s"`
}

// WorkflowsConfig holds the schedule of every workflow
type WorkflowsConfig struct {
	DiscoveryInterval time.Duration `env:"DISCOVERY_INTERVAL" envDefault:"3600s"`
	DiscoveryPenalty  time.Duration `env:"DISCOVERY_PENALTY" envDefault:"300s"`
	DiscoveryLimit    int           `env:"DISCOVERY_LIMIT" envDefault:"5"`
	DiscoveryTopK     int           `env:"DISCOVERY_TOP_K" envDefault:"3"`

	FulfillmentInterval time.Duration `env:"FULFILLMENT_INTERVAL" envDefault:"300s"`
	FulfillmentPenalty  time.Duration `env:"FULFILLMENT_PENALTY" envDefault:"300s"`

	CustomerServiceInterval time.Duration `env:"CUSTOMER_SERVICE_INTERVAL" envDefault:"180s"`
	CustomerServicePenalty  time.Duration `env:"CUSTOMER_SERVICE_PENALTY" envDefault:"180s"`

	AdOptimizationInterval time.Duration `env:"AD_OPTIMIZATION_INTERVAL" envDefault:"21600s"` // 6 hours
	AdOptimizationPenalty  time.Duration `env:"AD_OPTIMIZATION_PENALTY" envDefault:"3600s"`

	// Campaign created for newly listed products
	CampaignBudget      float64 `env:"CAMPAIGN_BUDGET" envDefault:"50"`
	CampaignDailyBudget float64 `env:"CAMPAIGN_DAILY_BUDGET" envDefault:"10"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ShutdownTimeout     time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
	HealthCheckInterval time.Duration `env:"HEALTH_CHECK_INTERVAL" envDefault:"30s"`
	StatusTTL           time.Duration `env:"STATUS_TTL" envDefault:"24h"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	// Validate Redis config
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}

	// Validate LLM config
	switch c.LLM.Provider {
	case "anthropic", "template":
	default:
		return fmt.Errorf("unsupported LLM provider: %s (must be anthropic or template)", c.LLM.Provider)
	}
	if c.LLM.MaxTokens < 1 {
		return fmt.Errorf("LLM max tokens must be at least 1")
	}

	// Validate commerce config
	switch c.Commerce.Backend {
	case "memory":
	case "rest":
		if _, err := url.ParseRequestURI(c.Commerce.BaseURL); err != nil {
			return fmt.Errorf("invalid commerce base URL: %w", err)
		}
	default:
		return fmt.Errorf("unsupported commerce backend: %s (must be memory or rest)", c.Commerce.Backend)
	}
	if c.Commerce.RequestTimeout <= 0 {
		return fmt.Errorf("commerce request timeout must be positive")
	}

	// Validate policy baseline
	if c.Policy.MinProfitMargin < 0 || c.Policy.MinProfitMargin > 1 {
		return fmt.Errorf("min profit margin must be within [0, 1]: %v", c.Policy.MinProfitMargin)
	}
	if c.Policy.ReloadInterval <= 0 {
		return fmt.Errorf("policy reload interval must be positive")
	}

	if err := c.Workflows.validate(); err != nil {
		return err
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

func (w *WorkflowsConfig) validate() error {
	schedules := map[string][2]time.Duration{
		"discovery":        {w.DiscoveryInterval, w.DiscoveryPenalty},
		"fulfillment":      {w.FulfillmentInterval, w.FulfillmentPenalty},
		"customer_service": {w.CustomerServiceInterval, w.CustomerServicePenalty},
		"ad_optimization":  {w.AdOptimizationInterval, w.AdOptimizationPenalty},
	}
	for name, s := range schedules {
		if s[0] <= 0 {
			return fmt.Errorf("%s interval must be positive", name)
		}
		if s[1] <= 0 {
			return fmt.Errorf("%s penalty must be positive", name)
		}
	}

	if w.DiscoveryLimit < 1 {
		return fmt.Errorf("discovery limit must be at least 1")
	}
	if w.DiscoveryTopK < 1 || w.DiscoveryTopK > w.DiscoveryLimit {
		return fmt.Errorf("discovery top-k must be within [1, %d]", w.DiscoveryLimit)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
