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

// EditOrder moves an order to the next status on behalf of its owner or driver.
func (s *OrderService) EditOrder(
	ctx context.Context,
	u user.User,
	id int64,
	status order.Status,
) (_ *order.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.EditOrder")
	span.SetAttributes(
		attribute.Int64("user.id", u.ID),
		attribute.Int64("order.id", id),
		attribute.String("order.status", string(status)),
	)
	defer func() { endSpan(span, err) }()

	if err := Allow(u.Role, OpEditOrder); err != nil {
		return nil, err
	}

	edited, err := s.editOrder(ctx, u, id, status)
	if err != nil {
		return nil, s.fail(ctx, err, msgCouldNotEditOrder, "order_id", id, "status", status)
	}

	metrics.StatusChanged(ctx, string(status))
	if edited.Status == order.StatusCooked {
		s.publishCooked(ctx, *edited)
	}
	s.publishUpdate(ctx, *edited)

	return edited, nil
}

func (s *OrderService) editOrder(
	ctx context.Context,
	u user.User,
	id int64,
	status order.Status,
) (*order.Order, error) {
	o, err := s.loadVisibleOrder(ctx, u, id, order.Include{})
	if err != nil {
		return nil, err
	}

	if err := AllowStatus(u.Role, status); err != nil {
		return nil, err
	}
	if !o.Status.CanMoveTo(status) {
		return nil, errs.InvalidTransition(msgIllegalTransition, o.Status, status)
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = work.Rollback(ctx) }()

	updated, err := work.OrderRepository().UpdateStatus(ctx, id, o.Status, status)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, errs.Conflict(msgConcurrentEdit)
	}

	previous := o.Status
	o.Status = status
	o.UpdatedAt = s.now()

	if err := s.enqueue(ctx, work, outbox.RoutingKeyStatusChanged, *o, previous, u.ID); err != nil {
		return nil, err
	}

	if err := work.Commit(ctx); err != nil {
		return nil, err
	}

	return o, nil
}
