package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aescanero/dropship/pkg/adapters/metrics/noop"
	"github.com/aescanero/dropship/pkg/domain"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestResponder(t *testing.T, handler http.HandlerFunc) *Responder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	r, err := NewResponder(Config{
		APIKey:         "test-key",
		Model:          "claude-3-5-sonnet-20241022",
		MaxTokens:      200,
		Temperature:    0.7,
		RequestTimeout: 5 * time.Second,
		Metrics:        noop.NewCollector(),
		Logger:         zap.NewNop(),
		Options:        []option.RequestOption{option.WithBaseURL(srv.URL), option.WithMaxRetries(0)},
	})
	require.NoError(t, err)
	return r
}

func TestResponder_GenerateResponse(t *testing.T) {
	var body map[string]interface{}
	r := newTestResponder(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/v1/messages", req.URL.Path)
		assert.Equal(t, "test-key", req.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-sonnet-20241022",
			"content": [{"type": "text", "text": "  Your order ships tomorrow. Anything else?  "}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 42, "output_tokens": 9}
		}`))
	})

	msg := domain.Message{ID: "msg-001", Subject: "Order Shipping Question", Body: "When will my order ship?"}
	text, err := r.GenerateResponse(context.Background(), msg, "Order #1001 - Total: $29.99 - Status: unfulfilled")
	require.NoError(t, err)

	assert.Equal(t, "Your order ships tomorrow. Anything else?", text)
	assert.Equal(t, "claude-3-5-sonnet-20241022", body["model"])
	assert.EqualValues(t, 200, body["max_tokens"])
	assert.Contains(t, body["messages"].([]interface{})[0].(map[string]interface{})["content"].([]interface{})[0].(map[string]interface{})["text"], "Order #1001")
}

func TestResponder_APIError(t *testing.T) {
	r := newTestResponder(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	})

	_, err := r.GenerateResponse(context.Background(), domain.Message{ID: "m"}, "")
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(domain.Message{Subject: "Product Issue", Body: "Can I get a refund?"}, "")

	assert.Contains(t, prompt, "Subject: Product Issue")
	assert.Contains(t, prompt, "Message: Can I get a refund?")
	assert.Contains(t, prompt, "Order Context: No order reference")
}

func TestNewResponder_Validation(t *testing.T) {
	_, err := NewResponder(Config{Model: "m"})
	assert.Error(t, err)

	_, err = NewResponder(Config{APIKey: "k"})
	assert.Error(t, err)
}
