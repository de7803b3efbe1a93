// Package pubsub is the in-process, topic-keyed notification bus that fans order events out to
// long-lived subscribers.
package pubsub

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/corray333/backend-labs/delivery/internal/metrics"
	"github.com/corray333/backend-labs/delivery/internal/service/models/order"
	"github.com/google/uuid"
)

// Topic names a stream of events.
type Topic string

const (
	TopicPendingOrder Topic = "NEW_PENDING_ORDER"
	TopicCookedOrder  Topic = "NEW_COOKED_ORDER"
	TopicOrderUpdate  Topic = "NEW_ORDER_UPDATE"
)

const defaultBufferSize = 100

// Event is a message published on a topic.
type Event struct {
	Topic Topic
	Order order.Order
	// Audience lists the user ids allowed to receive the event. Empty means everyone.
	Audience []int64
}

// Filter is evaluated by the bus against every event of the subscribed topic.
type Filter struct {
	SubscriberID int64
	// OrderID restricts delivery to one order. Zero matches any order.
	OrderID int64
}

// Match reports whether e should be delivered to a subscriber holding f.
func (f Filter) Match(e Event) bool {
	if f.OrderID != 0 && e.Order.ID != f.OrderID {
		return false
	}
	if len(e.Audience) == 0 {
		return true
	}

	return slices.Contains(e.Audience, f.SubscriberID)
}

// Subscription is one subscriber's slot on a topic.
type Subscription struct {
	ID     string
	Topic  Topic
	Filter Filter

	ch   chan Event
	done chan struct{}
	bus  *Bus
	once sync.Once
}

// C returns the channel events are delivered on. It is closed when the subscription ends.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Close releases the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.remove(s)
	})
}

// release closes the channels of a subscription that is no longer registered.
// Callers hold the bus lock or own the subscription exclusively.
func (s *Subscription) release() {
	close(s.ch)
	close(s.done)
}

// Bus delivers published events to matching subscribers.
type Bus struct {
	mu         sync.RWMutex
	subs       map[Topic]map[string]*Subscription
	bufferSize int
	closed     bool
}

// option is a function that configures the Bus.
type option func(*Bus)

// WithBufferSize sets the per-subscriber buffer.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithBufferSize(size int) option {
	return func(b *Bus) {
		if size > 0 {
			b.bufferSize = size
		}
	}
}

// New creates an empty bus.
func New(opts ...option) *Bus {
	b := &Bus{
		subs:       make(map[Topic]map[string]*Subscription),
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Publish hands e to every subscriber of its topic whose filter matches.
// It never blocks: a subscriber with a full buffer misses the event.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs[e.Topic] {
		if !sub.Filter.Match(e) {
			continue
		}

		select {
		case sub.ch <- e:
			metrics.EventDelivered(ctx, string(e.Topic))
		default:
			metrics.EventDropped(ctx, string(e.Topic))
			slog.Warn("Subscriber buffer is full, dropping event",
				"topic", e.Topic,
				"subscription_id", sub.ID,
				"order_id", e.Order.ID,
			)
		}
	}
}

// Subscribe attaches a subscriber to topic. The subscription ends when ctx is cancelled,
// when Close is called or when the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic Topic, filter Filter) *Subscription {
	sub := &Subscription{
		ID:     uuid.NewString(),
		Topic:  topic,
		Filter: filter,
		ch:     make(chan Event, b.bufferSize),
		done:   make(chan struct{}),
		bus:    b,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.release()

		return sub
	}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[string]*Subscription)
	}
	b.subs[topic][sub.ID] = sub
	b.mu.Unlock()

	metrics.SubscriptionOpened(ctx, string(topic))

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	return sub
}

// SubscriberCount returns the number of active subscriptions on topic.
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs[topic])
}

// Close ends every subscription. Later subscriptions are closed immediately.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for topic, subs := range b.subs {
		for id, sub := range subs {
			sub.release()
			delete(subs, id)
			metrics.SubscriptionClosed(context.Background(), string(topic))
		}
		delete(b.subs, topic)
	}
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subs[s.Topic]
	if !ok {
		return
	}
	if _, ok := subs[s.ID]; !ok {
		return
	}

	delete(subs, s.ID)
	if len(subs) == 0 {
		delete(b.subs, s.Topic)
	}
	s.release()
	metrics.SubscriptionClosed(context.Background(), string(s.Topic))
}
