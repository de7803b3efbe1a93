package ordersvc

import (
	"context"

	"github.com/corray333/backend-labs/delivery/internal/service/errs"
	"github.com/corray333/backend-labs/delivery/internal/service/models/order"
	"github.com/corray333/backend-labs/delivery/internal/service/models/restaurant"
	"github.com/corray333/backend-labs/delivery/internal/service/models/user"
	"go.opentelemetry.io/otel/attribute"
)

// GetOrdersInput filters an order listing. Page starts at 1; zero means the first page.
type GetOrdersInput struct {
	Status *order.Status
	Page   int
}

// GetOrders lists the caller's orders.
// Clients see the orders they placed and drivers the orders they deliver, one page at a time.
// Owners see every order of every restaurant they own.
func (s *OrderService) GetOrders(
	ctx context.Context,
	u user.User,
	in GetOrdersInput,
) (_ []order.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.GetOrders")
	span.SetAttributes(attribute.Int64("user.id", u.ID), attribute.String("user.role", string(u.Role)))
	defer func() { endSpan(span, err) }()

	if err := Allow(u.Role, OpGetOrders); err != nil {
		return nil, err
	}

	page := in.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return nil, errs.InvalidInput(msgInvalidPage)
	}

	orders, err := s.getOrders(ctx, u, in.Status, page)
	if err != nil {
		return nil, s.fail(ctx, err, msgCouldNotGetOrders, "user_id", u.ID)
	}

	return orders, nil
}

func (s *OrderService) getOrders(
	ctx context.Context,
	u user.User,
	status *order.Status,
	page int,
) ([]order.Order, error) {
	query := &order.QueryOrdersModel{
		Status: status,
		Limit:  s.pageSize,
		Offset: (page - 1) * s.pageSize,
	}

	switch u.Role {
	case user.RoleClient:
		query.CustomerIds = []int64{u.ID}
	case user.RoleDelivery:
		query.DriverIds = []int64{u.ID}
	case user.RoleOwner:
		restaurants, err := s.restaurantRepo.FindByOwner(ctx, u.ID, restaurant.Include{Orders: true})
		if err != nil {
			return nil, err
		}

		orders := []order.Order{}
		for _, r := range restaurants {
			for _, o := range r.Orders {
				if status == nil || o.Status == *status {
					orders = append(orders, o)
				}
			}
		}

		return orders, nil
	default:
		return nil, errs.Forbidden(msgForbiddenResource)
	}

	return s.newUOW().OrderRepository().Query(ctx, query)
}

// GetOrder returns one order with its restaurant and items if the caller takes part in it.
func (s *OrderService) GetOrder(ctx context.Context, u user.User, id int64) (_ *order.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.GetOrder")
	span.SetAttributes(attribute.Int64("user.id", u.ID), attribute.Int64("order.id", id))
	defer func() { endSpan(span, err) }()

	if err := Allow(u.Role, OpGetOrder); err != nil {
		return nil, err
	}

	o, err := s.loadVisibleOrder(ctx, u, id, order.Include{Restaurant: true, Items: true})
	if err != nil {
		return nil, s.fail(ctx, err, msgCouldNotLoadOrder, "order_id", id)
	}

	return o, nil
}

// loadVisibleOrder loads an order and applies the visibility rule.
func (s *OrderService) loadVisibleOrder(
	ctx context.Context,
	u user.User,
	id int64,
	include order.Include,
) (*order.Order, error) {
	include.Restaurant = true

	o, err := s.newUOW().OrderRepository().GetByID(ctx, id, include)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, errs.NotFound(msgOrderNotFound)
	}
	if !CanSee(u, o) {
		return nil, errs.Forbidden(msgCantSeeOrder)
	}

	return o, nil
}
