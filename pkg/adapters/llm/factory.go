package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/aescanero/dropship/pkg/adapters/llm/anthropic"
	"github.com/aescanero/dropship/pkg/adapters/llm/template"
	"github.com/aescanero/dropship/pkg/domain"
	"github.com/aescanero/dropship/pkg/ports"
	"go.uber.org/zap"
)

// Config holds LLM responder configuration
type Config struct {
	Provider       string
	APIKey         string
	Model          string
	MaxTokens      int64
	Temperature    float64
	RequestTimeout time.Duration
	Metrics        ports.MetricsCollector
	Logger         *zap.Logger
}

// NewResponder creates a responder based on provider
func NewResponder(cfg *Config) (ports.Responder, error) {
	switch cfg.Provider {
	case "anthropic":
		if cfg.APIKey == "" {
			cfg.Logger.Warn("no LLM API key configured, using template responses")
			return template.NewResponder(), nil
		}
		client, err := anthropic.NewResponder(anthropic.Config{
			APIKey:         cfg.APIKey,
			Model:          cfg.Model,
			MaxTokens:      cfg.MaxTokens,
			Temperature:    cfg.Temperature,
			RequestTimeout: cfg.RequestTimeout,
			Metrics:        cfg.Metrics,
			Logger:         cfg.Logger,
		})
		if err != nil {
			return nil, err
		}
		return NewFallback(client, template.NewResponder(), cfg.Logger), nil
	case "template":
		return template.NewResponder(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// Fallback answers with the secondary responder when the primary fails
// or returns an empty reply
type Fallback struct {
	primary   ports.Responder
	secondary ports.Responder
	logger    *zap.Logger
}

// NewFallback creates a responder chaining primary and secondary
func NewFallback(primary, secondary ports.Responder, logger *zap.Logger) *Fallback {
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

// GenerateResponse implements ports.Responder
func (f *Fallback) GenerateResponse(ctx context.Context, msg domain.Message, orderContext string) (string, error) {
	text, err := f.primary.GenerateResponse(ctx, msg, orderContext)
	if err == nil && text != "" {
		return text, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	f.logger.Warn("falling back to template response",
		zap.String("message_id", msg.ID),
		zap.Error(err))
	return f.secondary.GenerateResponse(ctx, msg, orderContext)
}
