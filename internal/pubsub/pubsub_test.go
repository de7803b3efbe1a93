package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/corray333/backend-labs/delivery/internal/service/models/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *Subscription) (Event, bool) {
	t.Helper()

	select {
	case e, ok := <-sub.C():
		return e, ok
	case <-time.After(time.Second):
		t.Fatalf("no event on subscription %s", sub.ID)

		return Event{}, false
	}
}

func assertEmpty(t *testing.T, sub *Subscription) {
	t.Helper()

	select {
	case e, ok := <-sub.C():
		if ok {
			t.Fatalf("unexpected event for order %d", e.Order.ID)
		}
	default:
	}
}

func TestFilterMatch(t *testing.T) {
	update := Event{
		Topic:    TopicOrderUpdate,
		Order:    order.Order{ID: 7},
		Audience: []int64{1, 2, 3},
	}
	broadcast := Event{Topic: TopicCookedOrder, Order: order.Order{ID: 7}}

	tests := []struct {
		name   string
		filter Filter
		event  Event
		want   bool
	}{
		{"party of the order", Filter{SubscriberID: 2, OrderID: 7}, update, true},
		{"stranger", Filter{SubscriberID: 9, OrderID: 7}, update, false},
		{"party of another order", Filter{SubscriberID: 2, OrderID: 8}, update, false},
		{"any order", Filter{SubscriberID: 3}, update, true},
		{"broadcast reaches everyone", Filter{SubscriberID: 42}, broadcast, true},
		{"broadcast honours order id", Filter{SubscriberID: 42, OrderID: 8}, broadcast, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(tt.event))
		})
	}
}

func TestOrderUpdateReachesOnlyMatchingSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := New()
	customer := bus.Subscribe(ctx, TopicOrderUpdate, Filter{SubscriberID: 1, OrderID: 10})
	owner := bus.Subscribe(ctx, TopicOrderUpdate, Filter{SubscriberID: 2, OrderID: 10})
	otherOrder := bus.Subscribe(ctx, TopicOrderUpdate, Filter{SubscriberID: 1, OrderID: 11})
	stranger := bus.Subscribe(ctx, TopicOrderUpdate, Filter{SubscriberID: 99, OrderID: 10})
	otherTopic := bus.Subscribe(ctx, TopicCookedOrder, Filter{SubscriberID: 1})

	bus.Publish(ctx, Event{
		Topic:    TopicOrderUpdate,
		Order:    order.Order{ID: 10, Status: order.StatusCooking},
		Audience: []int64{1, 2},
	})

	e, ok := receive(t, customer)
	require.True(t, ok)
	assert.Equal(t, int64(10), e.Order.ID)
	assert.Equal(t, order.StatusCooking, e.Order.Status)

	e, ok = receive(t, owner)
	require.True(t, ok)
	assert.Equal(t, int64(10), e.Order.ID)

	assertEmpty(t, otherOrder)
	assertEmpty(t, stranger)
	assertEmpty(t, otherTopic)
}

func TestPublishDropsWhenBufferIsFull(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := New(WithBufferSize(1))
	sub := bus.Subscribe(ctx, TopicCookedOrder, Filter{SubscriberID: 3})

	done := make(chan struct{})
	go func() {
		defer close(done)
		bus.Publish(ctx, Event{Topic: TopicCookedOrder, Order: order.Order{ID: 1}})
		bus.Publish(ctx, Event{Topic: TopicCookedOrder, Order: order.Order{ID: 2}})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	e, ok := receive(t, sub)
	require.True(t, ok)
	assert.Equal(t, int64(1), e.Order.ID)
	assertEmpty(t, sub)
}

func TestCancelReleasesSubscription(t *testing.T) {
	bus := New()
	ctx, cancel := context.WithCancel(context.Background())

	sub := bus.Subscribe(ctx, TopicPendingOrder, Filter{SubscriberID: 2})
	require.Equal(t, 1, bus.SubscriberCount(TopicPendingOrder))

	cancel()

	_, ok := receive(t, sub)
	assert.False(t, ok)
	assert.Eventually(t, func() bool {
		return bus.SubscriberCount(TopicPendingOrder) == 0
	}, time.Second, 10*time.Millisecond)

	sub.Close()
}

func TestCloseIsIdempotent(t *testing.T) {
	bus := New()
	sub := bus.Subscribe(context.Background(), TopicPendingOrder, Filter{SubscriberID: 2})

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, bus.SubscriberCount(TopicPendingOrder))
	_, ok := <-sub.C()
	assert.False(t, ok)
}

func TestBusCloseEndsSubscriptions(t *testing.T) {
	bus := New()
	sub := bus.Subscribe(context.Background(), TopicCookedOrder, Filter{SubscriberID: 3})

	bus.Close()

	_, ok := receive(t, sub)
	assert.False(t, ok)
	sub.Close()

	late := bus.Subscribe(context.Background(), TopicCookedOrder, Filter{SubscriberID: 3})
	_, ok = <-late.C()
	assert.False(t, ok)
	assert.Equal(t, 0, bus.SubscriberCount(TopicCookedOrder))
}
