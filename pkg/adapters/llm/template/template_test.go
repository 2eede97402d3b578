package template

import (
	"context"
	"testing"

	"github.com/aescanero/dropship/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponder_GenerateResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"tracking", "Where is my TRACKING number?", shippingReply},
		{"shipping", "when does shipping happen", shippingReply},
		{"refund", "Can I get a refund?", returnReply},
		{"return", "I want to return this", returnReply},
		{"other", "Do you sell gift cards?", defaultReply},
	}

	r := NewResponder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.GenerateResponse(context.Background(), domain.Message{Body: tt.body}, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
