package workflows

import (
	"context"
	"fmt"
	"sort"

	"github.com/aescanero/dropship/internal/application/workers"
	"github.com/aescanero/dropship/pkg/domain"
	"github.com/aescanero/dropship/pkg/ports"
	"go.uber.org/zap"
)

// Discovery lists the best discovered products and creates a draft ad
// campaign for each one when ad creation is enabled
type Discovery struct {
	Products   ports.DiscoveryService
	Storefront ports.StorefrontManager
	Ads        ports.AdManager
	Policy     Policy

	Limit       int
	TopK        int
	Budget      float64
	DailyBudget float64
}

// Pipeline returns the discovery tick. The policy snapshot is read once
// per tick so every item sees the same thresholds.
func (d *Discovery) Pipeline() workers.Pipeline {
	return workers.PipelineFunc(func(ctx context.Context, tick *workers.Tick) (*workers.Report, error) {
		snap := d.Policy.Snapshot()

		p := &workers.ItemPipeline[domain.Product]{
			Fetch: func(ctx context.Context) ([]domain.Product, error) {
				return d.Products.DiscoverProducts(ctx, snap.MinProfitMargin, d.Limit)
			},
			Select: d.SelectTop,
			Act: func(ctx context.Context, product domain.Product) workers.ItemResult {
				return d.list(ctx, tick, product, snap.AutoAdCreationEnabled)
			},
			Key: func(product domain.Product) string {
				if product.ID != "" {
					return product.ID
				}
				return product.Title
			},
		}
		return p.Run(ctx, tick)
	})
}

// SelectTop orders products by margin then profit, best first, and keeps
// at most TopK of them. The input slice is not modified.
func (d *Discovery) SelectTop(products []domain.Product) []domain.Product {
	sorted := make([]domain.Product, len(products))
	copy(sorted, products)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Margin != sorted[j].Margin {
			return sorted[i].Margin > sorted[j].Margin
		}
		return sorted[i].Profit > sorted[j].Profit
	})

	if d.TopK > 0 && len(sorted) > d.TopK {
		sorted = sorted[:d.TopK]
	}
	return sorted
}

func (d *Discovery) list(ctx context.Context, tick *workers.Tick, product domain.Product, promote bool) workers.ItemResult {
	record, err := d.Storefront.AddProduct(ctx, product)
	if err != nil {
		return workers.Failure(fmt.Errorf("add product: %w", err))
	}
	tick.Logger.Info("product added to store",
		zap.String("product", product.Title),
		zap.String("record_id", record.ID))

	if !promote {
		return workers.Success("listed " + record.ID)
	}

	campaign, err := d.Ads.CreateCampaign(ctx, d.Draft(product, record))
	if err != nil {
		// the product is live, only its promotion is missing
		return workers.ItemResult{
			Outcome: domain.OutcomePartial,
			Detail:  "listed " + record.ID + " without campaign",
			Err:     fmt.Errorf("create campaign: %w", err),
		}
	}
	tick.Logger.Info("ad campaign created",
		zap.String("product", product.Title),
		zap.String("campaign_id", campaign.ID))

	return workers.Success(fmt.Sprintf("listed %s, campaign %s", record.ID, campaign.ID))
}

// Draft builds the campaign promoting a newly listed product
func (d *Discovery) Draft(product domain.Product, record *domain.ProductRecord) domain.CampaignDraft {
	productID := product.ID
	if record != nil && record.ProductID != "" {
		productID = record.ProductID
	}

	return domain.CampaignDraft{
		Name:        "Promote " + product.Title,
		Platform:    domain.AdPlatformTikTok,
		ProductID:   productID,
		Budget:      d.Budget,
		DailyBudget: d.DailyBudget,
		TargetAudience: domain.TargetAudience{
			AgeRange:  [2]int{18, 45},
			Genders:   []int{1, 2},
			Locations: []string{"US"},
			Interests: []string{"shopping", "ecommerce"},
		},
		Status: "draft",
	}
}
