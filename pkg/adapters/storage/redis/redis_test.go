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

func TestGetStatusKey(t *testing.T) {
	assert.Equal(t, "dropship:status:order_fulfillment", getStatusKey("order_fulfillment"))
}

func TestDecodeStatus(t *testing.T) {
	status, err := decodeStatus([]byte(`{"workflow":"customer_service","state":"backoff","last_outcome":"error","ticks":3}`))
	require.NoError(t, err)
	assert.Equal(t, "customer_service", status.Workflow)
	assert.Equal(t, domain.OutcomeError, status.LastOutcome)
	assert.EqualValues(t, 3, status.Ticks)

	_, err = decodeStatus([]byte("not json"))
	assert.Error(t, err)
}

// TestStatusStorage_RoundTrip needs a live server at DROPSHIP_TEST_REDIS_ADDR
func TestStatusStorage_RoundTrip(t *testing.T) {
	addr := os.Getenv("DROPSHIP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DROPSHIP_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	s := NewStatusStorage(client, time.Minute, zap.NewNop())
	name := "test-" + uuid.NewString()
	defer client.Del(ctx, getStatusKey(name))

	_, err := s.GetStatus(ctx, name)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.SaveStatus(ctx, &domain.WorkflowStatus{Workflow: name, State: "sleeping"}))

	got, err := s.GetStatus(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "sleeping", got.State)

	ttl, err := client.TTL(ctx, getStatusKey(name)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
