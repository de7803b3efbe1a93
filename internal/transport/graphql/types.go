package graphqltransport

import (
	"github.com/corray333/backend-labs/delivery/internal/service/models/order"
	"github.com/corray333/backend-labs/delivery/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/delivery/internal/service/models/user"
	"github.com/graph-gophers/graphql-go"
)

type userResolver struct {
	u user.User
}

func (r *userResolver) ID() int32 {
	return int32(r.u.ID)
}

func (r *userResolver) Email() string {
	return r.u.Email
}

func (r *userResolver) Role() string {
	return string(r.u.Role)
}

type restaurantResolver struct {
	r order.Restaurant
}

func (r *restaurantResolver) ID() int32 {
	return int32(r.r.ID)
}

func (r *restaurantResolver) Name() string {
	return r.r.Name
}

func (r *restaurantResolver) Address() string {
	return r.r.Address
}

func (r *restaurantResolver) CoverImg() string {
	return r.r.CoverImg
}

func (r *restaurantResolver) OwnerID() int32 {
	return int32(r.r.OwnerID)
}

type orderItemOptionResolver struct {
	s orderitem.Selection
}

func (r *orderItemOptionResolver) Name() string {
	return r.s.Name
}

func (r *orderItemOptionResolver) Choice() *string {
	return r.s.Choice
}

type orderItemResolver struct {
	item orderitem.OrderItem
}

func (r *orderItemResolver) ID() int32 {
	return int32(r.item.ID)
}

func (r *orderItemResolver) DishID() int32 {
	return int32(r.item.DishID)
}

func (r *orderItemResolver) Options() []*orderItemOptionResolver {
	options := make([]*orderItemOptionResolver, 0, len(r.item.Options))
	for _, s := range r.item.Options {
		options = append(options, &orderItemOptionResolver{s: s})
	}

	return options
}

type orderResolver struct {
	o order.Order
}

func newOrderResolver(o order.Order) *orderResolver {
	return &orderResolver{o: o}
}

func newOrderResolvers(orders []order.Order) []*orderResolver {
	resolvers := make([]*orderResolver, 0, len(orders))
	for _, o := range orders {
		resolvers = append(resolvers, newOrderResolver(o))
	}

	return resolvers
}

func (r *orderResolver) ID() int32 {
	return int32(r.o.ID)
}

func (r *orderResolver) CustomerID() int32 {
	return int32(r.o.CustomerID)
}

func (r *orderResolver) DriverID() *int32 {
	if r.o.DriverID == nil {
		return nil
	}
	id := int32(*r.o.DriverID)

	return &id
}

func (r *orderResolver) RestaurantID() int32 {
	return int32(r.o.RestaurantID)
}

func (r *orderResolver) Restaurant() *restaurantResolver {
	if r.o.Restaurant == nil {
		return nil
	}

	return &restaurantResolver{r: *r.o.Restaurant}
}

func (r *orderResolver) Items() []*orderItemResolver {
	items := make([]*orderItemResolver, 0, len(r.o.Items))
	for _, item := range r.o.Items {
		items = append(items, &orderItemResolver{item: item})
	}

	return items
}

func (r *orderResolver) Total() float64 {
	return r.o.Total
}

func (r *orderResolver) Status() string {
	return string(r.o.Status)
}

func (r *orderResolver) CreatedAt() graphql.Time {
	return graphql.Time{Time: r.o.CreatedAt}
}

func (r *orderResolver) UpdatedAt() graphql.Time {
	return graphql.Time{Time: r.o.UpdatedAt}
}
