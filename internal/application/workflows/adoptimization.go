package workflows

import (
	"context"
	"fmt"

	"github.com/aescanero/dropship/internal/application/workers"
	"github.com/aescanero/dropship/pkg/domain"
	"github.com/aescanero/dropship/pkg/ports"
	"go.uber.org/zap"
)

// AdOptimizationPipeline walks every campaign. Without a reviewer the
// campaigns are only logged.
func AdOptimizationPipeline(ads ports.AdManager, reviewer ports.CampaignReviewer) workers.Pipeline {
	return workers.PipelineFunc(func(ctx context.Context, tick *workers.Tick) (*workers.Report, error) {
		p := &workers.ItemPipeline[domain.Campaign]{
			Fetch: ads.ListCampaigns,
			Act: func(ctx context.Context, campaign domain.Campaign) workers.ItemResult {
				tick.Logger.Info("checking campaign",
					zap.String("campaign_id", campaign.ID),
					zap.String("name", campaign.Name),
					zap.String("platform", string(campaign.Platform)),
					zap.String("status", campaign.Status))

				if reviewer == nil {
					return workers.Success("")
				}
				if err := reviewer.ReviewCampaign(ctx, campaign); err != nil {
					return workers.Failure(fmt.Errorf("review campaign: %w", err))
				}
				return workers.Success("reviewed")
			},
			Key: func(campaign domain.Campaign) string { return campaign.ID },
		}
		return p.Run(ctx, tick)
	})
}
