// Package anthropic generates customer service replies with Claude.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/dropship/pkg/domain"
	"github.com/aescanero/dropship/pkg/ports"
	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

const systemPrompt = "You are a professional customer service agent for an e-commerce store. Always be helpful, polite, and solution-oriented."

// Config holds the Claude client settings
type Config struct {
	APIKey         string
	Model          string
	MaxTokens      int64
	Temperature    float64
	RequestTimeout time.Duration
	Metrics        ports.MetricsCollector
	Logger         *zap.Logger

	// Options are appended to the SDK client options. Tests use it to
	// point the client at a local server.
	Options []option.RequestOption
}

// Responder implements ports.Responder with the Messages API
type Responder struct {
	client  sdk.Client
	cfg     Config
	logger  *zap.Logger
	metrics ports.MetricsCollector
}

// NewResponder creates a new Claude responder
func NewResponder(cfg Config) (*Responder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("anthropic model is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.RequestTimeout))
	}
	opts = append(opts, cfg.Options...)

	return &Responder{
		client:  sdk.NewClient(opts...),
		cfg:     cfg,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

// GenerateResponse asks Claude for a reply to msg
func (r *Responder) GenerateResponse(ctx context.Context, msg domain.Message, orderContext string) (string, error) {
	start := time.Now()
	resp, err := r.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(r.cfg.Model),
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: sdk.Float(r.cfg.Temperature),
		System:      []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(BuildPrompt(msg, orderContext))),
		},
	})
	r.record(err == nil, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("anthropic messages call failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())

	r.logger.Debug("customer service response generated",
		zap.String("message_id", msg.ID),
		zap.String("model", r.cfg.Model),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens))

	return text, nil
}

func (r *Responder) record(success bool, d time.Duration) {
	if r.metrics != nil {
		r.metrics.RecordExternalCall("anthropic", "generate_response", success, d)
	}
}

// BuildPrompt renders the user prompt for one customer message
func BuildPrompt(msg domain.Message, orderContext string) string {
	if orderContext == "" {
		orderContext = "No order reference"
	}

	return fmt.Sprintf(`You are a helpful customer service representative for an e-commerce dropshipping store.

Customer Message:
Subject: %s
Message: %s

Order Context: %s

Requirements:
- Be friendly, professional, and empathetic
- Address the customer's concern directly
- If it's about shipping, provide tracking info if available
- If it's about a product issue, offer solutions (refund, replacement, etc.)
- Keep response concise (2-3 sentences) but helpful
- Always end with asking if there's anything else you can help with

Generate an appropriate response:`, msg.Subject, msg.Body, orderContext)
}
