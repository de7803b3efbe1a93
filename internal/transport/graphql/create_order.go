package graphqltransport

import (
	"context"

	"github.com/corray333/backend-labs/delivery/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/delivery/internal/service/services/ordersvc"
)

type orderItemOptionInput struct {
	Name   string  `json:"name"   validate:"required"`
	Choice *string `json:"choice"`
}

type createOrderItemInput struct {
	DishID  int32                   `json:"dishId"  validate:"gt=0"`
	Options *[]orderItemOptionInput `json:"options" validate:"omitempty,dive"`
}

type createOrderInput struct {
	RestaurantID int32                  `json:"restaurantId" validate:"gt=0"`
	Items        []createOrderItemInput `json:"items"        validate:"min=1,dive"`
}

// toModel converts createOrderInput to ordersvc.CreateOrderInput.
func (in *createOrderInput) toModel() ordersvc.CreateOrderInput {
	items := make([]ordersvc.CreateOrderItemInput, 0, len(in.Items))
	for _, item := range in.Items {
		var options []orderitem.Selection
		if item.Options != nil {
			options = make([]orderitem.Selection, 0, len(*item.Options))
			for _, opt := range *item.Options {
				options = append(options, orderitem.Selection{Name: opt.Name, Choice: opt.Choice})
			}
		}
		items = append(items, ordersvc.CreateOrderItemInput{
			DishID:  int64(item.DishID),
			Options: options,
		})
	}

	return ordersvc.CreateOrderInput{
		RestaurantID: int64(in.RestaurantID),
		Items:        items,
	}
}

type createOrderOutput struct {
	envelope
	orderID *int32
}

func (o *createOrderOutput) OrderID() *int32 {
	return o.orderID
}

// CreateOrder resolves Mutation.createOrder.
func (r *Resolver) CreateOrder(ctx context.Context, args struct{ Input createOrderInput }) (*createOrderOutput, error) {
	u, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.check(&args.Input); err != nil {
		return &createOrderOutput{envelope: failure(err)}, nil
	}

	created, err := r.service.CreateOrder(ctx, u, args.Input.toModel())
	if err != nil {
		return &createOrderOutput{envelope: failure(err)}, nil
	}

	id := int32(created.ID)

	return &createOrderOutput{orderID: &id}, nil
}
