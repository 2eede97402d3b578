package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/aescanero/dropship/pkg/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDecodeMessage(t *testing.T) {
	event, err := decodeMessage(redis.XMessage{
		ID: "1-0",
		Values: map[string]interface{}{
			"data": `{"id":"e1","type":"workflow.tick.completed","workflow":"order_fulfillment","outcome":"partial","timestamp":"2024-01-01T00:00:00Z"}`,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "e1", event.ID)
	assert.Equal(t, domain.EventTypeTickCompleted, event.Type)
	assert.Equal(t, domain.OutcomePartial, event.Outcome)

	_, err = decodeMessage(redis.XMessage{ID: "2-0", Values: map[string]interface{}{}})
	assert.ErrorContains(t, err, "missing data")

	_, err = decodeMessage(redis.XMessage{ID: "3-0", Values: map[string]interface{}{"data": "{"}})
	assert.ErrorContains(t, err, "unmarshal")
}

func TestGetStreamKey(t *testing.T) {
	assert.Equal(t, "dropship:events:workflow.events", getStreamKey(domain.TopicWorkflowEvents))
}

func TestNewStreamsEventBus_Validation(t *testing.T) {
	_, err := NewStreamsEventBus(nil, "g", "c", zap.NewNop())
	assert.Error(t, err)

	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()
	_, err = NewStreamsEventBus(client, "", "c", zap.NewNop())
	assert.Error(t, err)
}

// TestStreamsEventBus_RoundTrip needs a live server at DROPSHIP_TEST_REDIS_ADDR
func TestStreamsEventBus_RoundTrip(t *testing.T) {
	addr := os.Getenv("DROPSHIP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DROPSHIP_TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	bus, err := NewStreamsEventBus(client, "test-"+uuid.NewString(), "consumer-1", zap.NewNop())
	require.NoError(t, err)
	defer bus.Close()

	topic := "test." + uuid.NewString()
	defer client.Del(context.Background(), getStreamKey(topic))

	received := make(chan domain.Event, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, bus.Subscribe(ctx, topic, func(ctx context.Context, event domain.Event) error {
		received <- event
		return nil
	}))

	require.NoError(t, bus.Publish(ctx, topic, domain.Event{ID: "e1", Type: domain.EventTypeTickSkipped}))

	select {
	case event := <-received:
		assert.Equal(t, "e1", event.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}
}
