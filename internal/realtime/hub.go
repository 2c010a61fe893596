package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
)

// Topic names a list whose contents changed. Subscribers re-fetch; signals carry no data.
type Topic string

const (
	TopicTickets Topic = "tickets"
	TopicUsers   Topic = "users"
)

func ParseTopic(s string) (Topic, bool) {
	switch t := Topic(s); t {
	case TopicTickets, TopicUsers:
		return t, true
	}
	return "", false
}

// Message is the frame sent to WebSocket clients, e.g. {"event":"tickets_updated"}.
func (t Topic) Message() []byte {
	b, _ := json.Marshal(struct {
		Event string `json:"event"`
	}{Event: string(t) + "_updated"})
	return b
}

type Handler func(topic Topic)

// Relay carries signals between API instances.
type Relay interface {
	Publish(ctx context.Context, topic Topic) error
	// Subscribe starts listening and returns once the subscription is active. The channel is
	// closed when ctx ends.
	Subscribe(ctx context.Context) (<-chan Topic, error)
}

var ErrHubStopped = errors.New("realtime hub stopped")

// Hub fans refresh signals out to local subscribers. With a relay configured, Publish goes through
// the relay and local delivery happens when the signal comes back, so every instance behaves alike.
type Hub struct {
	relay  Relay
	logger *slog.Logger

	mu     sync.RWMutex
	subs   map[Topic]map[uint64]Handler
	nextID uint64

	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped chan struct{}
	stop    sync.Once
}

func NewHub(relay Relay, logger *slog.Logger) *Hub {
	return &Hub{
		relay:   relay,
		logger:  logger,
		subs:    make(map[Topic]map[uint64]Handler),
		stopped: make(chan struct{}),
	}
}

func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return nil
	}
	h.started = true

	if h.relay == nil {
		h.logger.Info("realtime hub started", "relay", false)
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	signals, err := h.relay.Subscribe(ctx)
	if err != nil {
		cancel()
		return err
	}
	h.cancel = cancel

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for topic := range signals {
			h.deliver(topic)
		}
	}()

	h.logger.Info("realtime hub started", "relay", true)
	return nil
}

// Stop ends the relay subscription and tells connected clients to go away.
func (h *Hub) Stop() {
	h.stop.Do(func() {
		close(h.stopped)
		if h.cancel != nil {
			h.cancel()
		}
		h.wg.Wait()
		h.logger.Info("realtime hub stopped")
	})
}

// Done is closed once Stop has been called.
func (h *Hub) Done() <-chan struct{} {
	return h.stopped
}

func (h *Hub) Publish(ctx context.Context, topic Topic) error {
	select {
	case <-h.stopped:
		return ErrHubStopped
	default:
	}

	if h.relay != nil {
		if err := h.relay.Publish(ctx, topic); err != nil {
			h.logger.Error("relay publish failed, delivering locally", "topic", topic, "error", err)
			h.deliver(topic)
			return err
		}
		return nil
	}

	h.deliver(topic)
	return nil
}

// Subscribe registers handler for topic and returns a function that removes it.
// Handlers run on the publisher's goroutine and must not block.
func (h *Hub) Subscribe(topic Topic, handler Handler) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[uint64]Handler)
	}
	h.subs[topic][id] = handler

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[topic], id)
	}
}

func (h *Hub) SubscriberCount(topic Topic) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

func (h *Hub) deliver(topic Topic) {
	h.mu.RLock()
	handlers := make([]Handler, 0, len(h.subs[topic]))
	for _, handler := range h.subs[topic] {
		handlers = append(handlers, handler)
	}
	h.mu.RUnlock()

	h.logger.Debug("delivering refresh signal", "topic", topic, "subscribers", len(handlers))
	for _, handler := range handlers {
		handler(topic)
	}
}
