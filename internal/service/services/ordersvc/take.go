package ordersvc

import (
	"context"

	"github.com/corray333/backend-labs/delivery/internal/metrics"
	"github.com/corray333/backend-labs/delivery/internal/service/errs"
	"github.com/corray333/backend-labs/delivery/internal/service/models/order"
	"github.com/corray333/backend-labs/delivery/internal/service/models/outbox"
	"github.com/corray333/backend-labs/delivery/internal/service/models/user"
	"go.opentelemetry.io/otel/attribute"
)

// TakeOrder assigns the calling driver to an order.
// Taking an order the driver already holds succeeds without changing anything.
func (s *OrderService) TakeOrder(ctx context.Context, driver user.User, id int64) (_ *order.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.TakeOrder")
	span.SetAttributes(attribute.Int64("driver.id", driver.ID), attribute.Int64("order.id", id))
	defer func() { endSpan(span, err) }()

	if err := Allow(driver.Role, OpTakeOrder); err != nil {
		return nil, err
	}

	taken, changed, err := s.takeOrder(ctx, driver, id)
	if err != nil {
		return nil, s.fail(ctx, err, msgCouldNotUpdateOrder, "order_id", id, "driver_id", driver.ID)
	}

	if changed {
		metrics.DriverAssigned(ctx)
		s.publishUpdate(ctx, *taken)
	}

	return taken, nil
}

func (s *OrderService) takeOrder(ctx context.Context, driver user.User, id int64) (*order.Order, bool, error) {
	o, err := s.newUOW().OrderRepository().GetByID(ctx, id, order.Include{Restaurant: true})
	if err != nil {
		return nil, false, err
	}
	if o == nil {
		return nil, false, errs.NotFound(msgOrderNotFound)
	}

	if o.DriverID != nil {
		if *o.DriverID == driver.ID {
			return o, false, nil
		}

		return nil, false, errs.Conflict(msgAlreadyHasDriver)
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return nil, false, err
	}
	defer func() { _ = work.Rollback(ctx) }()

	assigned, err := work.OrderRepository().AssignDriver(ctx, id, driver.ID)
	if err != nil {
		return nil, false, err
	}
	if !assigned {
		return nil, false, errs.Conflict(msgAlreadyHasDriver)
	}

	driverID := driver.ID
	o.DriverID = &driverID
	o.UpdatedAt = s.now()

	if err := s.enqueue(ctx, work, outbox.RoutingKeyDriverAssigned, *o, o.Status, driver.ID); err != nil {
		return nil, false, err
	}

	if err := work.Commit(ctx); err != nil {
		return nil, false, err
	}

	return o, true, nil
}
