package graphqltransport

import (
	"context"

	"github.com/corray333/backend-labs/delivery/internal/service/errs"
	"github.com/corray333/backend-labs/delivery/internal/service/models/order"
	"github.com/corray333/backend-labs/delivery/internal/service/services/ordersvc"
)

type getOrdersInput struct {
	Status *string `json:"status"`
	Page   *int32  `json:"page"   validate:"omitempty,gte=1"`
}

// toModel converts getOrdersInput to ordersvc.GetOrdersInput.
func (in *getOrdersInput) toModel() (ordersvc.GetOrdersInput, error) {
	var model ordersvc.GetOrdersInput
	if in.Page != nil {
		model.Page = int(*in.Page)
	}
	if in.Status != nil {
		status, err := order.ParseStatus(*in.Status)
		if err != nil {
			return model, errs.InvalidInput("Unknown order status %s", *in.Status)
		}
		model.Status = &status
	}

	return model, nil
}

type getOrdersOutput struct {
	envelope
	orders *[]*orderResolver
}

func (o *getOrdersOutput) Orders() *[]*orderResolver {
	return o.orders
}

// GetOrders resolves Query.getOrders.
func (r *Resolver) GetOrders(ctx context.Context, args struct{ Input getOrdersInput }) (*getOrdersOutput, error) {
	u, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.check(&args.Input); err != nil {
		return &getOrdersOutput{envelope: failure(err)}, nil
	}
	in, err := args.Input.toModel()
	if err != nil {
		return &getOrdersOutput{envelope: failure(err)}, nil
	}

	orders, err := r.service.GetOrders(ctx, u, in)
	if err != nil {
		return &getOrdersOutput{envelope: failure(err)}, nil
	}

	resolvers := newOrderResolvers(orders)

	return &getOrdersOutput{orders: &resolvers}, nil
}
