package graphqltransport

import (
	"context"

	"github.com/corray333/backend-labs/delivery/internal/service/errs"
	"github.com/corray333/backend-labs/delivery/internal/service/models/order"
)

type orderIDInput struct {
	ID int32 `json:"id" validate:"gt=0"`
}

type editOrderInput struct {
	ID     int32  `json:"id"     validate:"gt=0"`
	Status string `json:"status" validate:"required"`
}

// orderOutput serves GetOrderOutput, EditOrderOutput and TakeOrderOutput.
type orderOutput struct {
	envelope
	order *orderResolver
}

func (o *orderOutput) Order() *orderResolver {
	return o.order
}

func orderResult(o *order.Order, err error) *orderOutput {
	if err != nil {
		return &orderOutput{envelope: failure(err)}
	}

	return &orderOutput{order: newOrderResolver(*o)}
}

// GetOrder resolves Query.getOrder.
func (r *Resolver) GetOrder(ctx context.Context, args struct{ Input orderIDInput }) (*orderOutput, error) {
	u, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.check(&args.Input); err != nil {
		return orderResult(nil, err), nil
	}

	return orderResult(r.service.GetOrder(ctx, u, int64(args.Input.ID))), nil
}

// EditOrder resolves Mutation.editOrder.
func (r *Resolver) EditOrder(ctx context.Context, args struct{ Input editOrderInput }) (*orderOutput, error) {
	u, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.check(&args.Input); err != nil {
		return orderResult(nil, err), nil
	}

	status, err := order.ParseStatus(args.Input.Status)
	if err != nil {
		return orderResult(nil, errs.InvalidInput("Unknown order status %s", args.Input.Status)), nil
	}

	return orderResult(r.service.EditOrder(ctx, u, int64(args.Input.ID), status)), nil
}

// TakeOrder resolves Mutation.takeOrder.
func (r *Resolver) TakeOrder(ctx context.Context, args struct{ Input orderIDInput }) (*orderOutput, error) {
	u, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.check(&args.Input); err != nil {
		return orderResult(nil, err), nil
	}

	return orderResult(r.service.TakeOrder(ctx, u, int64(args.Input.ID))), nil
}

// Me resolves Query.me.
func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	u, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	return &userResolver{u: u}, nil
}
