package ordersvc

import (
	"context"

	"github.com/corray333/backend-labs/delivery/internal/metrics"
	"github.com/corray333/backend-labs/delivery/internal/service/errs"
	"github.com/corray333/backend-labs/delivery/internal/service/models/order"
	"github.com/corray333/backend-labs/delivery/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/delivery/internal/service/models/outbox"
	"github.com/corray333/backend-labs/delivery/internal/service/models/restaurant"
	"github.com/corray333/backend-labs/delivery/internal/service/models/user"
	"go.opentelemetry.io/otel/attribute"
)

// CreateOrderItemInput is one requested order line.
type CreateOrderItemInput struct {
	DishID  int64
	Options []orderitem.Selection
}

// CreateOrderInput is a customer's order request.
type CreateOrderInput struct {
	RestaurantID int64
	Items        []CreateOrderItemInput
}

// CreateOrder prices and stores a new pending order and notifies the restaurant owner.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	customer user.User,
	in CreateOrderInput,
) (_ *order.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.CreateOrder")
	span.SetAttributes(
		attribute.Int64("customer.id", customer.ID),
		attribute.Int64("restaurant.id", in.RestaurantID),
	)
	defer func() { endSpan(span, err) }()

	if err := Allow(customer.Role, OpCreateOrder); err != nil {
		return nil, err
	}

	created, err := s.createOrder(ctx, customer, in)
	if err != nil {
		return nil, s.fail(ctx, err, msgCouldNotCreateOrder, "customer_id", customer.ID)
	}

	metrics.OrderCreated(ctx)
	s.publishPending(ctx, *created)

	return created, nil
}

func (s *OrderService) createOrder(
	ctx context.Context,
	customer user.User,
	in CreateOrderInput,
) (*order.Order, error) {
	rest, err := s.restaurantRepo.GetByID(ctx, in.RestaurantID)
	if err != nil {
		return nil, err
	}
	if rest == nil {
		return nil, errs.NotFound(msgRestaurantNotFound)
	}

	if len(in.Items) == 0 {
		return nil, errs.InvalidInput(msgEmptyOrder)
	}

	now := s.now()
	items := make([]orderitem.OrderItem, 0, len(in.Items))
	var total float64

	for _, item := range in.Items {
		d, err := s.dishRepo.GetByID(ctx, item.DishID)
		if err != nil {
			return nil, err
		}
		if d == nil || d.RestaurantID != rest.ID {
			return nil, errs.NotFound(msgDishNotFound)
		}

		price, err := PriceItem(*d, item.Options)
		if err != nil {
			return nil, err
		}
		total += price

		options := item.Options
		if options == nil {
			options = []orderitem.Selection{}
		}
		items = append(items, orderitem.OrderItem{
			DishID:    d.ID,
			Options:   options,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = work.Rollback(ctx) }()

	created, err := work.OrderRepository().Create(ctx, order.Order{
		CustomerID:   customer.ID,
		RestaurantID: rest.ID,
		Total:        total,
		Status:       order.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	for i := range items {
		items[i].OrderID = created.ID
	}
	created.Items, err = work.OrderItemRepository().BulkInsert(ctx, items)
	if err != nil {
		return nil, err
	}
	created.Restaurant = orderRestaurant(rest)

	if err := s.enqueue(ctx, work, outbox.RoutingKeyOrderCreated, created, "", customer.ID); err != nil {
		return nil, err
	}

	if err := work.Commit(ctx); err != nil {
		return nil, err
	}

	return &created, nil
}

func orderRestaurant(r *restaurant.Restaurant) *order.Restaurant {
	return &order.Restaurant{
		ID:       r.ID,
		Name:     r.Name,
		Address:  r.Address,
		CoverImg: r.CoverImg,
		OwnerID:  r.OwnerID,
	}
}
