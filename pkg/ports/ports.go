// Package ports declares the interfaces the orchestrator consumes.
//
// Commerce collaborators (discovery, storefront, ads, fulfillment,
// customer messages) are external systems; the orchestrator only drives
// them. Infrastructure ports (events, status storage, metrics, policy
// source) have memory, Redis and Prometheus adapters under pkg/adapters.
package ports

import (
	"context"
	"time"

	"github.com/aescanero/dropship/pkg/domain"
)

// DiscoveryService finds candidate products at the supplier
type DiscoveryService interface {
	// DiscoverProducts may return fewer than limit products. An empty
	// result is not an error.
	DiscoverProducts(ctx context.Context, minMargin float64, limit int) ([]domain.Product, error)
}

// StorefrontManager lists products in the store
type StorefrontManager interface {
	AddProduct(ctx context.Context, product domain.Product) (*domain.ProductRecord, error)
}

// AdManager creates and lists ad campaigns
type AdManager interface {
	CreateCampaign(ctx context.Context, draft domain.CampaignDraft) (*domain.Campaign, error)
	ListCampaigns(ctx context.Context) ([]domain.Campaign, error)
}

// FulfillmentService fulfills storefront orders through the supplier
type FulfillmentService interface {
	GetPendingOrders(ctx context.Context) ([]domain.Order, error)
	FulfillOrder(ctx context.Context, orderID string) (*domain.FulfillmentResult, error)
}

// MessageAgent answers customer messages
type MessageAgent interface {
	GetMessages(ctx context.Context, answered bool) ([]domain.Message, error)
	HandleMessage(ctx context.Context, messageID string) (*domain.MessageResult, error)
}

// Responder generates the text of a customer service reply
type Responder interface {
	GenerateResponse(ctx context.Context, msg domain.Message, orderContext string) (string, error)
}

// CampaignReviewer inspects an existing campaign during ad optimization
type CampaignReviewer interface {
	ReviewCampaign(ctx context.Context, campaign domain.Campaign) error
}

// EventHandler handles an event delivered by the event bus
type EventHandler func(ctx context.Context, event domain.Event) error

// EventBus publishes workflow and lifecycle events
type EventBus interface {
	Publish(ctx context.Context, topic string, event domain.Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Close() error
}

// StatusStore keeps the last known status of each workflow
type StatusStore interface {
	SaveStatus(ctx context.Context, status *domain.WorkflowStatus) error
	GetStatus(ctx context.Context, workflow string) (*domain.WorkflowStatus, error)
	ListStatuses(ctx context.Context) ([]*domain.WorkflowStatus, error)
}

// PolicySource provides hot-reloadable policy overrides
type PolicySource interface {
	LoadOverrides(ctx context.Context) (map[string]string, error)
	SaveOverrides(ctx context.Context, overrides map[string]string) error
}

// MetricsCollector records orchestrator metrics
type MetricsCollector interface {
	RecordTick(workflow string, outcome domain.Outcome, duration time.Duration)
	RecordItem(workflow string, outcome domain.Outcome)
	RecordRunnerStates(counts map[string]int)
	SetRunnersActive(count int)
	RecordPolicyReload(success bool)
	RecordExternalCall(service, operation string, success bool, duration time.Duration)
}
