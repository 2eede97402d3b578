package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/aescanero/dropship/pkg/domain"
	"github.com/aescanero/dropship/pkg/ports"
	"go.uber.org/zap"
)

// DefaultBuffer is the number of events queued per subscriber
const DefaultBuffer = 64

// ErrClosed is returned when subscribing to a closed bus
var ErrClosed = errors.New("event bus closed")

// subscription delivers events to one handler from its own goroutine
type subscription struct {
	topic   string
	handler ports.EventHandler
	events  chan domain.Event
	done    chan struct{}
	once    sync.Once
}

func (s *subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

// InMemoryEventBus implements EventBus with in-process fan-out. Publish
// never blocks: a subscriber whose queue is full misses the event.
type InMemoryEventBus struct {
	logger *zap.Logger
	buffer int

	mu          sync.RWMutex
	subscribers map[string][]*subscription
	closed      bool
	wg          sync.WaitGroup
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		logger:      logger,
		buffer:      DefaultBuffer,
		subscribers: make(map[string][]*subscription),
	}
}

// Publish queues an event for all subscribers of a topic
func (e *InMemoryEventBus) Publish(ctx context.Context, topic string, event domain.Event) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, sub := range e.subscribers[topic] {
		select {
		case sub.events <- event:
		default:
			e.logger.Warn("subscriber queue full, dropping event",
				zap.String("topic", topic),
				zap.String("event_id", event.ID),
				zap.String("type", string(event.Type)))
		}
	}

	return nil
}

// Subscribe delivers events on topic to handler until ctx is cancelled
// or the bus is closed
func (e *InMemoryEventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	sub := &subscription{
		topic:   topic,
		handler: handler,
		events:  make(chan domain.Event, e.buffer),
		done:    make(chan struct{}),
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.subscribers[topic] = append(e.subscribers[topic], sub)
	e.wg.Add(1)
	e.mu.Unlock()

	go e.deliver(ctx, sub)
	return nil
}

// deliver runs handlers for one subscription in publish order
func (e *InMemoryEventBus) deliver(ctx context.Context, sub *subscription) {
	defer e.wg.Done()
	defer e.unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.done:
			return
		case event := <-sub.events:
			if err := sub.handler(ctx, event); err != nil {
				e.logger.Debug("event handler error",
					zap.String("topic", sub.topic),
					zap.String("event_id", event.ID),
					zap.Error(err))
			}
		}
	}
}

// Unsubscribe removes all subscriptions from a topic
func (e *InMemoryEventBus) Unsubscribe(ctx context.Context, topic string) error {
	e.mu.Lock()
	subs := e.subscribers[topic]
	delete(e.subscribers, topic)
	e.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
	return nil
}

// Close stops every subscription and waits for their handlers to return
func (e *InMemoryEventBus) Close() error {
	e.mu.Lock()
	e.closed = true
	all := e.subscribers
	e.subscribers = make(map[string][]*subscription)
	e.mu.Unlock()

	for _, subs := range all {
		for _, sub := range subs {
			sub.stop()
		}
	}

	e.wg.Wait()
	return nil
}

// unsubscribe removes a single subscription from its topic
func (e *InMemoryEventBus) unsubscribe(sub *subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs := e.subscribers[sub.topic]
	for i, s := range subs {
		if s == sub {
			e.subscribers[sub.topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(e.subscribers[sub.topic]) == 0 {
		delete(e.subscribers, sub.topic)
	}
}
