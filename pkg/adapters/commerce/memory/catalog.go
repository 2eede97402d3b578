package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/aescanero/dropship/pkg/adapters/llm/template"
	"github.com/aescanero/dropship/pkg/domain"
	"github.com/aescanero/dropship/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Settings are the business switches the catalog consults on every call
type Settings struct {
	AutoFulfillEnabled         bool
	AutoCustomerServiceEnabled bool
	MinDailySales              int
	MaxProductPrice            float64
}

// Option customizes a Catalog
type Option func(*Catalog)

// WithSettings sets the function the catalog reads its settings from
func WithSettings(f func() Settings) Option {
	return func(c *Catalog) { c.settings = f }
}

// WithResponder sets the responder used to answer messages
func WithResponder(r ports.Responder) Option {
	return func(c *Catalog) { c.responder = r }
}

// WithProducts replaces the seeded supplier products
func WithProducts(products ...domain.Product) Option {
	return func(c *Catalog) { c.products = append([]domain.Product(nil), products...) }
}

// WithOrders replaces the seeded orders
func WithOrders(orders ...domain.Order) Option {
	return func(c *Catalog) {
		c.orders = nil
		for i := range orders {
			order := orders[i]
			c.orders = append(c.orders, &order)
		}
	}
}

// WithMessages replaces the seeded customer messages
func WithMessages(messages ...domain.Message) Option {
	return func(c *Catalog) {
		c.messages = nil
		for i := range messages {
			msg := messages[i]
			c.messages = append(c.messages, &msg)
		}
	}
}

// Catalog is an in-process commerce backend. It implements every
// commerce collaborator and starts with a small seeded data set.
type Catalog struct {
	logger    *zap.Logger
	responder ports.Responder
	settings  func() Settings
	now       func() time.Time

	mu        sync.Mutex
	products  []domain.Product
	listed    map[string]domain.ProductRecord
	campaigns []domain.Campaign
	orders    []*domain.Order
	messages  []*domain.Message
}

// NewCatalog creates a seeded catalog
func NewCatalog(logger *zap.Logger, opts ...Option) *Catalog {
	now := time.Now().UTC()
	c := &Catalog{
		logger:    logger,
		responder: template.NewResponder(),
		settings: func() Settings {
			return Settings{AutoFulfillEnabled: true, AutoCustomerServiceEnabled: true}
		},
		now:      func() time.Time { return time.Now().UTC() },
		products: seedProducts(),
		listed:   make(map[string]domain.ProductRecord),
	}
	WithOrders(seedOrders(now)...)(c)
	WithMessages(seedMessages(now)...)(c)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DiscoverProducts returns unlisted products meeting the margin, sales
// and price thresholds, in catalog order
func (c *Catalog) DiscoverProducts(ctx context.Context, minMargin float64, limit int) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	settings := c.settings()

	c.mu.Lock()
	defer c.mu.Unlock()

	var out []domain.Product
	for _, p := range c.products {
		if limit > 0 && len(out) >= limit {
			break
		}
		if _, ok := c.listed[p.ID]; ok {
			continue
		}
		if p.Margin < minMargin {
			continue
		}
		if settings.MinDailySales > 0 && p.SalesVolume < settings.MinDailySales {
			continue
		}
		if settings.MaxProductPrice > 0 && p.Price > settings.MaxProductPrice {
			continue
		}
		out = append(out, p)
	}

	c.logger.Debug("products discovered",
		zap.Float64("min_margin", minMargin),
		zap.Int("found", len(out)))
	return out, nil
}

// AddProduct lists a product in the store
func (c *Catalog) AddProduct(ctx context.Context, product domain.Product) (*domain.ProductRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if product.ID == "" {
		return nil, domain.NewIntegrationError("storefront", "add_product", 0, errors.New("product id is required"))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.listed[product.ID]; ok {
		return nil, domain.NewIntegrationError("storefront", "add_product", 0,
			fmt.Errorf("product %s is already listed", product.ID))
	}

	record := domain.ProductRecord{
		ID:        "shopify-" + product.ID,
		ProductID: product.ID,
		Handle:    handle(product.Title),
		Status:    domain.ProductStatusActive,
		CreatedAt: c.now(),
	}
	c.listed[product.ID] = record

	return &record, nil
}

// CreateCampaign registers a campaign and activates it
func (c *Catalog) CreateCampaign(ctx context.Context, draft domain.CampaignDraft) (*domain.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if draft.ProductID == "" {
		return nil, domain.NewIntegrationError("ads", "create_campaign", 0, errors.New("product id is required"))
	}

	campaign := domain.Campaign{
		CampaignDraft: draft,
		ID:            fmt.Sprintf("%s-%s", draft.Platform, uuid.NewString()[:8]),
		Created:       c.now(),
	}
	campaign.Status = "active"

	c.mu.Lock()
	c.campaigns = append(c.campaigns, campaign)
	c.mu.Unlock()

	return &campaign, nil
}

// ListCampaigns returns every campaign in creation order
func (c *Catalog) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Campaign(nil), c.campaigns...), nil
}

// GetPendingOrders returns the unfulfilled orders
func (c *Catalog) GetPendingOrders(ctx context.Context) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var out []domain.Order
	for _, o := range c.orders {
		if o.FulfillmentStatus == "unfulfilled" {
			out = append(out, *o)
		}
	}
	return out, nil
}

// FulfillOrder ships an order through the supplier and records tracking
func (c *Catalog) FulfillOrder(ctx context.Context, orderID string) (*domain.FulfillmentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.settings().AutoFulfillEnabled {
		return &domain.FulfillmentResult{Status: domain.OutcomeDisabled, Message: "Auto-fulfillment is disabled"}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	order := c.order(orderID)
	if order == nil {
		return &domain.FulfillmentResult{Status: domain.OutcomeError, OrderID: orderID, Message: "Order not found"}, nil
	}
	if order.FulfillmentStatus != "unfulfilled" {
		return &domain.FulfillmentResult{Status: domain.OutcomeError, OrderID: orderID, Message: "Order already fulfilled"}, nil
	}

	tracking := "CJ" + orderID
	if len(orderID) > 8 {
		tracking = "CJ" + orderID[:8]
	}
	order.FulfillmentStatus = "fulfilled"
	order.TrackingNumber = tracking

	c.logger.Info("order fulfilled",
		zap.String("order_id", orderID),
		zap.String("tracking_number", tracking))

	return &domain.FulfillmentResult{
		Status:         domain.OutcomeSuccess,
		OrderID:        orderID,
		TrackingNumber: tracking,
		TrackingURL:    "https://tracking.cjdropshipping.com/" + orderID,
	}, nil
}

// GetMessages returns messages filtered by their answered flag
func (c *Catalog) GetMessages(ctx context.Context, answered bool) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var out []domain.Message
	for _, m := range c.messages {
		if m.Answered == answered {
			out = append(out, *m)
		}
	}
	return out, nil
}

// HandleMessage generates and records a reply to a customer message
func (c *Catalog) HandleMessage(ctx context.Context, messageID string) (*domain.MessageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.settings().AutoCustomerServiceEnabled {
		return &domain.MessageResult{Status: domain.OutcomeDisabled, Message: "Auto customer service is disabled"}, nil
	}

	c.mu.Lock()
	msg := c.message(messageID)
	if msg == nil {
		c.mu.Unlock()
		return &domain.MessageResult{Status: domain.OutcomeError, MessageID: messageID, Message: "Message not found"}, nil
	}
	if msg.Answered {
		c.mu.Unlock()
		return &domain.MessageResult{Status: domain.OutcomeAlreadyAnswered, MessageID: messageID, Message: "Message already handled"}, nil
	}
	snapshot := *msg
	orderContext := c.orderContext(msg.OrderID)
	c.mu.Unlock()

	// the responder may be remote, do not hold the lock
	text, err := c.responder.GenerateResponse(ctx, snapshot, orderContext)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &domain.MessageResult{Status: domain.OutcomeError, MessageID: messageID, Message: err.Error()}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.Answered {
		return &domain.MessageResult{Status: domain.OutcomeAlreadyAnswered, MessageID: messageID, Message: "Message already handled"}, nil
	}
	now := c.now()
	msg.Answered = true
	msg.Response = text
	msg.RespondedAt = &now

	c.logger.Info("response sent",
		zap.String("message_id", messageID),
		zap.String("customer_email", msg.CustomerEmail))

	return &domain.MessageResult{Status: domain.OutcomeSuccess, MessageID: messageID, Response: text}, nil
}

func (c *Catalog) order(id string) *domain.Order {
	for _, o := range c.orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (c *Catalog) message(id string) *domain.Message {
	for _, m := range c.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (c *Catalog) orderContext(orderID string) string {
	if orderID == "" {
		return ""
	}
	order := c.order(orderID)
	if order == nil {
		return ""
	}
	return fmt.Sprintf("Order #%s - Total: $%.2f - Status: %s",
		strings.TrimPrefix(order.Number, "#"), order.Total, order.FulfillmentStatus)
}

// handle turns a title into a storefront URL handle
func handle(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
