package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/aescanero/dropship/internal/application/workers"
	"github.com/aescanero/dropship/pkg/domain"
	"github.com/aescanero/dropship/pkg/ports"
)

// FulfillmentPipeline fulfills every pending order
func FulfillmentPipeline(svc ports.FulfillmentService) workers.Pipeline {
	return &workers.ItemPipeline[domain.Order]{
		Fetch: svc.GetPendingOrders,
		Act: func(ctx context.Context, order domain.Order) workers.ItemResult {
			result, err := svc.FulfillOrder(ctx, order.ID)
			if err != nil {
				return workers.Failure(fmt.Errorf("fulfill order: %w", err))
			}
			return fulfillmentResult(result)
		},
		Key: func(order domain.Order) string {
			if order.Number != "" {
				return order.Number
			}
			return order.ID
		},
	}
}

func fulfillmentResult(result *domain.FulfillmentResult) workers.ItemResult {
	if result == nil {
		return workers.Failure(errors.New("empty fulfillment result"))
	}

	switch result.Status {
	case domain.OutcomeSuccess:
		detail := result.Message
		if result.TrackingNumber != "" {
			detail = "tracking " + result.TrackingNumber
		}
		return workers.Success(detail)
	case domain.OutcomePartial, domain.OutcomeDisabled:
		return workers.ItemResult{Outcome: result.Status, Detail: result.Message}
	default:
		msg := result.Message
		if msg == "" {
			msg = fmt.Sprintf("fulfillment returned status %q", result.Status)
		}
		return workers.Failure(errors.New(msg))
	}
}
