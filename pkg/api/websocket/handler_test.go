package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aescanero/dropship/pkg/adapters/events/memory"
	"github.com/aescanero/dropship/pkg/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStream(t *testing.T) (*memory.InMemoryEventBus, *Handler, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bus := memory.NewInMemoryEventBus(zap.NewNop())
	t.Cleanup(func() { _ = bus.Close() })

	h := NewHandler(bus, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, h.Start(ctx))

	router := gin.New()
	router.GET("/ws", h.HandleEventStream)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return bus, h, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func dial(t *testing.T, h *Handler, url string) *websocket.Conn {
	t.Helper()
	before := h.Clients()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return h.Clients() > before }, time.Second, 5*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) domain.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event domain.Event
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestHandler_StreamsEvents(t *testing.T) {
	bus, h, url := newStream(t)
	conn := dial(t, h, url)
	ctx := context.Background()

	require.NoError(t, bus.Publish(ctx, domain.TopicOrchestratorEvents, domain.Event{
		ID:   "e1",
		Type: domain.EventTypeOrchestratorStarted,
	}))
	event := readEvent(t, conn)
	assert.Equal(t, "e1", event.ID)
	assert.Equal(t, domain.EventTypeOrchestratorStarted, event.Type)

	require.NoError(t, bus.Publish(ctx, domain.TopicWorkflowEvents, domain.Event{
		ID:       "e2",
		Type:     domain.EventTypeTickCompleted,
		Workflow: "order_fulfillment",
		Outcome:  domain.OutcomeSuccess,
	}))
	event = readEvent(t, conn)
	assert.Equal(t, "order_fulfillment", event.Workflow)
	assert.Equal(t, domain.OutcomeSuccess, event.Outcome)
}

func TestHandler_WorkflowFilter(t *testing.T) {
	bus, h, url := newStream(t)
	conn := dial(t, h, url+"?workflow=customer_service")
	ctx := context.Background()

	require.NoError(t, bus.Publish(ctx, domain.TopicWorkflowEvents, domain.Event{
		ID: "skipped", Type: domain.EventTypeTickCompleted, Workflow: "product_discovery",
	}))
	require.NoError(t, bus.Publish(ctx, domain.TopicWorkflowEvents, domain.Event{
		ID: "kept", Type: domain.EventTypeTickCompleted, Workflow: "customer_service",
	}))

	assert.Equal(t, "kept", readEvent(t, conn).ID)
}

func TestHandler_UnregistersOnClose(t *testing.T) {
	_, h, url := newStream(t)
	conn := dial(t, h, url)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return h.Clients() == 0 }, time.Second, 5*time.Millisecond)
}
