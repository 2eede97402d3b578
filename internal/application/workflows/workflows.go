package workflows

import (
	"fmt"

	"github.com/aescanero/dropship/internal/application/policy"
	"github.com/aescanero/dropship/internal/application/workers"
	"github.com/aescanero/dropship/internal/config"
	"github.com/aescanero/dropship/pkg/ports"
)

// Workflow names
const (
	NameDiscovery       = "product_discovery"
	NameFulfillment     = "order_fulfillment"
	NameCustomerService = "customer_service"
	NameAdOptimization  = "ad_optimization"
)

// Names lists the workflows in start order
var Names = []string{NameDiscovery, NameFulfillment, NameCustomerService, NameAdOptimization}

// Policy exposes the snapshot a tick reads its thresholds from
type Policy interface {
	Snapshot() policy.Snapshot
}

// Dependencies are the commerce collaborators the workflows drive
type Dependencies struct {
	Discovery   ports.DiscoveryService
	Storefront  ports.StorefrontManager
	Ads         ports.AdManager
	Fulfillment ports.FulfillmentService
	Messages    ports.MessageAgent

	// Reviewer is consulted for every campaign during ad optimization.
	// Optional.
	Reviewer ports.CampaignReviewer
}

func (d Dependencies) validate() error {
	switch {
	case d.Discovery == nil:
		return fmt.Errorf("discovery service is required")
	case d.Storefront == nil:
		return fmt.Errorf("storefront manager is required")
	case d.Ads == nil:
		return fmt.Errorf("ad manager is required")
	case d.Fulfillment == nil:
		return fmt.Errorf("fulfillment service is required")
	case d.Messages == nil:
		return fmt.Errorf("message agent is required")
	}
	return nil
}

// Rules returns the policy rule of every workflow. Discovery creates
// campaigns, so it also needs the ad creation flag. Ad optimization shares
// that flag.
func Rules() map[string]policy.Rule {
	return map[string]policy.Rule{
		NameDiscovery: func(s policy.Snapshot) bool {
			return s.AutoDiscoveryEnabled && s.AutoAdCreationEnabled
		},
		NameFulfillment:     func(s policy.Snapshot) bool { return s.AutoFulfillEnabled },
		NameCustomerService: func(s policy.Snapshot) bool { return s.AutoCustomerServiceEnabled },
		NameAdOptimization:  func(s policy.Snapshot) bool { return s.AutoAdCreationEnabled },
	}
}

// Build returns the specs of the four workflows in start order
func Build(cfg config.WorkflowsConfig, deps Dependencies, pol Policy) ([]workers.Spec, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if pol == nil {
		return nil, fmt.Errorf("policy is required")
	}

	discovery := &Discovery{
		Products:    deps.Discovery,
		Storefront:  deps.Storefront,
		Ads:         deps.Ads,
		Policy:      pol,
		Limit:       cfg.DiscoveryLimit,
		TopK:        cfg.DiscoveryTopK,
		Budget:      cfg.CampaignBudget,
		DailyBudget: cfg.CampaignDailyBudget,
	}

	specs := []workers.Spec{
		{
			Name:     NameDiscovery,
			Interval: cfg.DiscoveryInterval,
			Penalty:  cfg.DiscoveryPenalty,
			Pipeline: discovery.Pipeline(),
		},
		{
			Name:     NameFulfillment,
			Interval: cfg.FulfillmentInterval,
			Penalty:  cfg.FulfillmentPenalty,
			Pipeline: FulfillmentPipeline(deps.Fulfillment),
		},
		{
			Name:     NameCustomerService,
			Interval: cfg.CustomerServiceInterval,
			Penalty:  cfg.CustomerServicePenalty,
			Pipeline: CustomerServicePipeline(deps.Messages),
		},
		{
			Name:     NameAdOptimization,
			Interval: cfg.AdOptimizationInterval,
			Penalty:  cfg.AdOptimizationPenalty,
			Pipeline: AdOptimizationPipeline(deps.Ads, deps.Reviewer),
		},
	}

	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
	}
	return specs, nil
}
