package events

import (
	"context"
	"sync"
	"time"
)

// Topic names for domain events.
const (
	TopicPoolRefreshed     = "pool.refreshed"
	TopicPoolRefreshFailed = "pool.refresh_failed"
	TopicPoolDegraded      = "pool.degraded"
	TopicFetchCompleted    = "fetch.completed"
	TopicCachePurged       = "cache.purged"

	// TopicAll receives every event regardless of topic.
	TopicAll = "*"
)

const defaultHistory = 64

// Event represents a published message on the event bus.
type Event struct {
	Topic     string            `json:"topic"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   any               `json:"payload,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Handler processes an incoming event.
type Handler func(context.Context, Event)

// Publisher exposes the ability to publish events to the hub.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any, metadata map[string]string)
}

// Subscriber exposes subscription capabilities.
type Subscriber interface {
	Subscribe(topic string, handler Handler) func()
}

// Hub is a lightweight in-process pub/sub event bus that also keeps the most
// recent events for inspection.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[int64]Handler
	nextID int64

	histMu  sync.Mutex
	history []Event
	histCap int
}

// NewHub constructs a new empty hub.
func NewHub() *Hub {
	return &Hub{
		subs:    make(map[string]map[int64]Handler),
		histCap: defaultHistory,
	}
}

// Subscribe registers a handler for the given topic (or TopicAll).
// It returns a function that, when invoked, unsubscribes the handler.
func (h *Hub) Subscribe(topic string, handler Handler) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID

	if _, ok := h.subs[topic]; !ok {
		h.subs[topic] = make(map[int64]Handler)
	}
	h.subs[topic][id] = handler

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if listeners, ok := h.subs[topic]; ok {
			delete(listeners, id)
			if len(listeners) == 0 {
				delete(h.subs, topic)
			}
		}
	}
}

// Publish records the event and dispatches it to subscribers synchronously.
func (h *Hub) Publish(ctx context.Context, topic string, payload any, metadata map[string]string) {
	if h == nil {
		return
	}
	event := Event{
		Topic:     topic,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
		Metadata:  metadata,
	}
	h.remember(event)

	for _, handler := range h.snapshotHandlers(topic) {
		handler(ctx, event)
	}
}

// Recent returns up to n of the latest events, oldest first.
func (h *Hub) Recent(n int) []Event {
	h.histMu.Lock()
	defer h.histMu.Unlock()
	if n <= 0 || n > len(h.history) {
		n = len(h.history)
	}
	out := make([]Event, n)
	copy(out, h.history[len(h.history)-n:])
	return out
}

func (h *Hub) remember(ev Event) {
	h.histMu.Lock()
	defer h.histMu.Unlock()
	h.history = append(h.history, ev)
	if over := len(h.history) - h.histCap; over > 0 {
		h.history = append(h.history[:0], h.history[over:]...)
	}
}

func (h *Hub) snapshotHandlers(topic string) []Handler {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []Handler
	for _, key := range []string{topic, TopicAll} {
		for _, handler := range h.subs[key] {
			out = append(out, handler)
		}
		if topic == TopicAll {
			break
		}
	}
	return out
}
