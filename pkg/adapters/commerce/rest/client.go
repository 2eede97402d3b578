package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aescanero/dropship/pkg/domain"
	"github.com/aescanero/dropship/pkg/ports"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "commerce"

// maxErrorBody bounds how much of an error response is kept
const maxErrorBody = 4 << 10

// Config holds the commerce API client settings
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	RateLimit float64
	RateBurst int

	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration

	Metrics ports.MetricsCollector
	Logger  *zap.Logger

	// HTTPClient overrides the default client. Optional.
	HTTPClient *http.Client
}

// Client talks to the commerce backend API and implements every
// commerce collaborator. Calls are rate limited on the client side and
// pass through one circuit breaker.
type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics ports.MetricsCollector
	logger  *zap.Logger
}

// NewClient creates a new commerce API client
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid commerce base URL: %q", cfg.BaseURL)
	}
	if cfg.RateLimit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive")
	}
	if cfg.RateBurst < 1 {
		cfg.RateBurst = 1
	}
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}

	maxFailures := cfg.BreakerMaxFailures
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("commerce circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: isHealthy,
	})

	return c, nil
}

// isHealthy reports whether err says nothing about the backend's health.
// Client errors and cancellations do not trip the breaker.
func isHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var ie *domain.IntegrationError
	if errors.As(err, &ie) && ie.StatusCode >= 400 && ie.StatusCode < 500 {
		return true
	}
	return false
}

// DiscoverProducts implements ports.DiscoveryService
func (c *Client) DiscoverProducts(ctx context.Context, minMargin float64, limit int) ([]domain.Product, error) {
	query := url.Values{}
	query.Set("min_margin", strconv.FormatFloat(minMargin, 'f', -1, 64))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var products []domain.Product
	if err := c.do(ctx, "discover_products", http.MethodGet, "/products/discover", query, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// AddProduct implements ports.StorefrontManager
func (c *Client) AddProduct(ctx context.Context, product domain.Product) (*domain.ProductRecord, error) {
	var resp struct {
		Status  string `json:"status"`
		Product struct {
			ID     string               `json:"id"`
			Handle string               `json:"handle"`
			Status domain.ProductStatus `json:"status"`
		} `json:"product"`
	}
	if err := c.do(ctx, "add_product", http.MethodPost, "/products/add", nil, product, &resp); err != nil {
		return nil, err
	}

	return &domain.ProductRecord{
		ID:        resp.Product.ID,
		ProductID: product.ID,
		Handle:    resp.Product.Handle,
		Status:    resp.Product.Status,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// CreateCampaign implements ports.AdManager
func (c *Client) CreateCampaign(ctx context.Context, draft domain.CampaignDraft) (*domain.Campaign, error) {
	var campaign domain.Campaign
	if err := c.do(ctx, "create_campaign", http.MethodPost, "/ads/create", nil, draft, &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// ListCampaigns implements ports.AdManager
func (c *Client) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	var campaigns []domain.Campaign
	if err := c.do(ctx, "list_campaigns", http.MethodGet, "/ads/campaigns", nil, nil, &campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}

// GetPendingOrders implements ports.FulfillmentService
func (c *Client) GetPendingOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, "get_pending_orders", http.MethodGet, "/orders/pending", nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// FulfillOrder implements ports.FulfillmentService
func (c *Client) FulfillOrder(ctx context.Context, orderID string) (*domain.FulfillmentResult, error) {
	var resp struct {
		Status      string                   `json:"status"`
		Fulfillment domain.FulfillmentResult `json:"fulfillment"`
	}
	path := "/orders/" + url.PathEscape(orderID) + "/fulfill"
	if err := c.do(ctx, "fulfill_order", http.MethodPost, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Fulfillment, nil
}

// GetMessages implements ports.MessageAgent
func (c *Client) GetMessages(ctx context.Context, answered bool) ([]domain.Message, error) {
	query := url.Values{}
	query.Set("answered", strconv.FormatBool(answered))

	var messages []domain.Message
	if err := c.do(ctx, "get_messages", http.MethodGet, "/customer/messages", query, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// HandleMessage implements ports.MessageAgent
func (c *Client) HandleMessage(ctx context.Context, messageID string) (*domain.MessageResult, error) {
	var resp struct {
		Status   string               `json:"status"`
		Response domain.MessageResult `json:"response"`
	}
	path := "/customer/messages/" + url.PathEscape(messageID) + "/respond"
	if err := c.do(ctx, "handle_message", http.MethodPost, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Response, nil
}

// do waits for the rate limiter, then performs the call through the
// circuit breaker and decodes the JSON response into out
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s %s: rate limiter: %w", serviceName, op, err)
	}

	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, op, method, path, query, body, out)
	})
	if c.metrics != nil {
		c.metrics.RecordExternalCall(serviceName, op, err == nil, time.Since(start))
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.NewIntegrationError(serviceName, op, 0, err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	endpoint := *c.baseURL
	endpoint.Path = c.baseURL.Path + path
	if query != nil {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return domain.NewIntegrationError(serviceName, op, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.NewIntegrationError(serviceName, op, resp.StatusCode, errors.New(errorMessage(msg, resp.Status)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewIntegrationError(serviceName, op, resp.StatusCode, fmt.Errorf("invalid response body: %w", err))
	}

	c.logger.Debug("commerce call completed",
		zap.String("operation", op),
		zap.Int("status", resp.StatusCode))
	return nil
}

// errorMessage extracts the detail of an error response, falling back
// to the raw body or the status line
func errorMessage(body []byte, status string) string {
	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		for _, s := range []string{payload.Detail, payload.Message, payload.Error} {
			if s != "" {
				return s
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return status
}
