package policy

import (
	"fmt"
	"strconv"

	"github.com/aescanero/dropship/internal/config"
)

// Snapshot is an immutable view of the policy flags and thresholds
type Snapshot struct {
	AutoFulfillEnabled         bool    `json:"auto_fulfill_enabled"`
	AutoAdCreationEnabled      bool    `json:"auto_ad_creation_enabled"`
	AutoCustomerServiceEnabled bool    `json:"auto_customer_service_enabled"`
	AutoDiscoveryEnabled       bool    `json:"auto_discovery_enabled"`
	MinProfitMargin            float64 `json:"min_profit_margin"`
	MinDailySales              int     `json:"min_daily_sales"`
	MaxProductPrice            float64 `json:"max_product_price"`
}

// FromConfig builds the baseline snapshot from the loaded configuration
func FromConfig(cfg config.PolicyConfig) Snapshot {
	return Snapshot{
		AutoFulfillEnabled:         cfg.AutoFulfillEnabled,
		AutoAdCreationEnabled:      cfg.AutoAdCreationEnabled,
		AutoCustomerServiceEnabled: cfg.AutoCustomerServiceEnabled,
		AutoDiscoveryEnabled:       cfg.AutoDiscoveryEnabled,
		MinProfitMargin:            cfg.MinProfitMargin,
		MinDailySales:              cfg.MinDailySales,
		MaxProductPrice:            cfg.MaxProductPrice,
	}
}

// Apply returns a copy of s with overrides applied. Keys are the snake
// case names of the JSON fields. Unknown keys are ignored.
func (s Snapshot) Apply(overrides map[string]string) (Snapshot, error) {
	out := s
	for key, raw := range overrides {
		var err error
		switch key {
		case "auto_fulfill_enabled":
			out.AutoFulfillEnabled, err = strconv.ParseBool(raw)
		case "auto_ad_creation_enabled":
			out.AutoAdCreationEnabled, err = strconv.ParseBool(raw)
		case "auto_customer_service_enabled":
			out.AutoCustomerServiceEnabled, err = strconv.ParseBool(raw)
		case "auto_discovery_enabled":
			out.AutoDiscoveryEnabled, err = strconv.ParseBool(raw)
		case "min_profit_margin":
			out.MinProfitMargin, err = strconv.ParseFloat(raw, 64)
			if err == nil && (out.MinProfitMargin < 0 || out.MinProfitMargin > 1) {
				err = fmt.Errorf("out of range [0, 1]")
			}
		case "min_daily_sales":
			out.MinDailySales, err = strconv.Atoi(raw)
		case "max_product_price":
			out.MaxProductPrice, err = strconv.ParseFloat(raw, 64)
		default:
			continue
		}
		if err != nil {
			return s, fmt.Errorf("invalid policy override %s=%q: %w", key, raw, err)
		}
	}
	return out, nil
}
