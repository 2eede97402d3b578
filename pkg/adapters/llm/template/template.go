// Package template answers customer messages with canned replies.
package template

import (
	"context"
	"strings"

	"github.com/aescanero/dropship/pkg/domain"
)

const (
	shippingReply = "Thank you for contacting us! Your order is being processed and you'll receive a tracking number via email once it ships. Please allow 7-15 business days for delivery. Is there anything else I can help you with?"
	returnReply   = "I understand you'd like to return your item. We offer a 30-day money-back guarantee. Please reply with your order number and I'll process your return request. Is there anything else I can assist you with?"
	defaultReply  = "Thank you for reaching out! I'd be happy to help you with that. Could you provide a bit more information so I can assist you better? Is there anything else I can help with?"
)

// Responder picks a reply by keyword
type Responder struct{}

// NewResponder creates a template responder
func NewResponder() *Responder {
	return &Responder{}
}

// GenerateResponse implements ports.Responder. It never fails.
func (r *Responder) GenerateResponse(ctx context.Context, msg domain.Message, orderContext string) (string, error) {
	body := strings.ToLower(msg.Body)
	switch {
	case strings.Contains(body, "shipping"), strings.Contains(body, "tracking"):
		return shippingReply, nil
	case strings.Contains(body, "refund"), strings.Contains(body, "return"):
		return returnReply, nil
	default:
		return defaultReply, nil
	}
}
