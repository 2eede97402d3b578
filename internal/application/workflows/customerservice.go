package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/aescanero/dropship/internal/application/workers"
	"github.com/aescanero/dropship/pkg/domain"
	"github.com/aescanero/dropship/pkg/ports"
)

// CustomerServicePipeline answers every unanswered customer message
func CustomerServicePipeline(agent ports.MessageAgent) workers.Pipeline {
	return &workers.ItemPipeline[domain.Message]{
		Fetch: func(ctx context.Context) ([]domain.Message, error) {
			return agent.GetMessages(ctx, false)
		},
		Act: func(ctx context.Context, msg domain.Message) workers.ItemResult {
			result, err := agent.HandleMessage(ctx, msg.ID)
			if err != nil {
				return workers.Failure(fmt.Errorf("handle message: %w", err))
			}
			return messageResult(result)
		},
		Key: func(msg domain.Message) string { return msg.ID },
	}
}

func messageResult(result *domain.MessageResult) workers.ItemResult {
	if result == nil {
		return workers.Failure(errors.New("empty message result"))
	}

	switch result.Status {
	case domain.OutcomeSuccess, domain.OutcomeAlreadyAnswered, domain.OutcomeDisabled:
		return workers.ItemResult{Outcome: result.Status, Detail: result.Message}
	default:
		msg := result.Message
		if msg == "" {
			msg = fmt.Sprintf("message agent returned status %q", result.Status)
		}
		return workers.Failure(errors.New(msg))
	}
}
