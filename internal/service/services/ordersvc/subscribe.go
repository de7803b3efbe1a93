package ordersvc

import (
	"context"

	"github.com/corray333/backend-labs/delivery/internal/pubsub"
	"github.com/corray333/backend-labs/delivery/internal/service/models/order"
	"github.com/corray333/backend-labs/delivery/internal/service/models/user"
)

// PendingOrders streams new orders placed at the restaurants of the calling owner.
func (s *OrderService) PendingOrders(ctx context.Context, u user.User) (<-chan order.Order, error) {
	if err := Allow(u.Role, OpPendingOrders); err != nil {
		return nil, err
	}

	return s.stream(ctx, pubsub.TopicPendingOrder, pubsub.Filter{SubscriberID: u.ID}), nil
}

// CookedOrders streams every order that becomes ready for pickup.
func (s *OrderService) CookedOrders(ctx context.Context, u user.User) (<-chan order.Order, error) {
	if err := Allow(u.Role, OpCookedOrders); err != nil {
		return nil, err
	}

	return s.stream(ctx, pubsub.TopicCookedOrder, pubsub.Filter{SubscriberID: u.ID}), nil
}

// OrderUpdates streams changes of one order the caller takes part in.
func (s *OrderService) OrderUpdates(ctx context.Context, u user.User, orderID int64) (<-chan order.Order, error) {
	if err := Allow(u.Role, OpOrderUpdates); err != nil {
		return nil, err
	}

	if _, err := s.loadVisibleOrder(ctx, u, orderID, order.Include{}); err != nil {
		return nil, s.fail(ctx, err, msgCouldNotLoadOrder, "order_id", orderID)
	}

	return s.stream(ctx, pubsub.TopicOrderUpdate, pubsub.Filter{SubscriberID: u.ID, OrderID: orderID}), nil
}

// stream forwards the orders of matching events until ctx is cancelled.
func (s *OrderService) stream(ctx context.Context, topic pubsub.Topic, filter pubsub.Filter) <-chan order.Order {
	sub := s.bus.Subscribe(ctx, topic, filter)
	out := make(chan order.Order)

	go func() {
		defer close(out)
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-sub.C():
				if !ok {
					return
				}
				select {
				case out <- e.Order:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
