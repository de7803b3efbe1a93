package ordersvc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/corray333/backend-labs/delivery/internal/pubsub"
	"github.com/corray333/backend-labs/delivery/internal/service/models/order"
	"github.com/corray333/backend-labs/delivery/internal/service/models/outbox"
)

// enqueue records an order event in the outbox inside work's transaction.
func (s *OrderService) enqueue(
	ctx context.Context,
	work UnitOfWork,
	routingKey string,
	o order.Order,
	oldStatus order.Status,
	changedBy int64,
) error {
	now := s.now()
	payload, err := json.Marshal(outbox.Event{
		Type:         routingKey,
		OrderID:      o.ID,
		RestaurantID: o.RestaurantID,
		CustomerID:   o.CustomerID,
		DriverID:     o.DriverID,
		OldStatus:    string(oldStatus),
		NewStatus:    string(o.Status),
		Total:        o.Total,
		ChangedBy:    changedBy,
		Timestamp:    now,
	})
	if err != nil {
		return fmt.Errorf("failed to encode order event: %w", err)
	}

	return work.OutboxRepository().Insert(ctx, outbox.Message{
		OrderID:      o.ID,
		ExchangeName: s.exchange,
		RoutingKey:   routingKey,
		Payload:      payload,
		ContentType:  "application/json",
		MaxRetries:   s.maxRetries,
		CreatedAt:    now,
		UpdatedAt:    now,
		NextRetryAt:  now,
	})
}

func (s *OrderService) publishPending(ctx context.Context, o order.Order) {
	s.bus.Publish(ctx, pubsub.Event{
		Topic:    pubsub.TopicPendingOrder,
		Order:    o,
		Audience: []int64{o.OwnerID()},
	})
}

func (s *OrderService) publishCooked(ctx context.Context, o order.Order) {
	s.bus.Publish(ctx, pubsub.Event{
		Topic: pubsub.TopicCookedOrder,
		Order: o,
	})
}

func (s *OrderService) publishUpdate(ctx context.Context, o order.Order) {
	s.bus.Publish(ctx, pubsub.Event{
		Topic:    pubsub.TopicOrderUpdate,
		Order:    o,
		Audience: o.Parties(),
	})
}
