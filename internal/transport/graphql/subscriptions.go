package graphqltransport

import (
	"context"

	"github.com/corray333/backend-labs/delivery/internal/service/models/order"
)

// PendingOrders resolves Subscription.pendingOrders.
func (r *Resolver) PendingOrders(ctx context.Context) (<-chan *orderResolver, error) {
	u, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	return resolveStream(ctx)(r.service.PendingOrders(ctx, u))
}

// CookedOrders resolves Subscription.cookedOrders.
func (r *Resolver) CookedOrders(ctx context.Context) (<-chan *orderResolver, error) {
	u, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	return resolveStream(ctx)(r.service.CookedOrders(ctx, u))
}

// OrderUpdates resolves Subscription.orderUpdates.
func (r *Resolver) OrderUpdates(ctx context.Context, args struct{ Input orderIDInput }) (<-chan *orderResolver, error) {
	u, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.check(&args.Input); err != nil {
		return nil, err
	}

	return resolveStream(ctx)(r.service.OrderUpdates(ctx, u, int64(args.Input.ID)))
}

// resolveStream wraps every order of a service stream into a resolver until the stream or ctx ends.
func resolveStream(ctx context.Context) func(<-chan order.Order, error) (<-chan *orderResolver, error) {
	return func(in <-chan order.Order, err error) (<-chan *orderResolver, error) {
		if err != nil {
			return nil, err
		}

		out := make(chan *orderResolver)
		go func() {
			defer close(out)

			for o := range in {
				select {
				case out <- newOrderResolver(o):
				case <-ctx.Done():
					return
				}
			}
		}()

		return out, nil
	}
}
