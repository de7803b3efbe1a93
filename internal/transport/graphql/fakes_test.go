package graphqltransport

import (
	"context"
	"sync"
	"time"

	"github.com/corray333/backend-labs/delivery/internal/service/errs"
	"github.com/corray333/backend-labs/delivery/internal/service/models/order"
	"github.com/corray333/backend-labs/delivery/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/delivery/internal/service/models/user"
	"github.com/corray333/backend-labs/delivery/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/delivery/internal/transport/http/middleware/auth"
)

var (
	client   = user.User{ID: 1, Email: "client@example.com", Role: user.RoleClient}
	owner    = user.User{ID: 2, Email: "owner@example.com", Role: user.RoleOwner}
	driver   = user.User{ID: 3, Email: "driver@example.com", Role: user.RoleDelivery}
	placedAt = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
)

func asUser(u user.User) context.Context {
	return auth.WithUser(context.Background(), &u)
}

func sampleOrder() order.Order {
	choice := "large"

	return order.Order{
		ID:           7,
		CustomerID:   client.ID,
		RestaurantID: 1,
		Total:        13,
		Status:       order.StatusPending,
		CreatedAt:    placedAt,
		UpdatedAt:    placedAt,
		Restaurant:   &order.Restaurant{ID: 1, Name: "Pizza", Address: "Main st. 1", CoverImg: "pizza.png", OwnerID: owner.ID},
		Items: []orderitem.OrderItem{{
			ID:      1,
			OrderID: 7,
			DishID:  5,
			Options: []orderitem.Selection{{Name: "spicy"}, {Name: "size", Choice: &choice}},
		}},
	}
}

// fakeService records its calls and answers with canned values.
type fakeService struct {
	mu sync.Mutex

	err    error
	order  order.Order
	orders []order.Order

	createInput ordersvc.CreateOrderInput
	ordersInput ordersvc.GetOrdersInput
	calledWith  []any
	streams     map[string]chan order.Order
}

func newFakeService() *fakeService {
	return &fakeService{
		order:   sampleOrder(),
		streams: map[string]chan order.Order{},
	}
}

func (f *fakeService) record(args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calledWith = append(f.calledWith, args...)
}

func (f *fakeService) calls() []any {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]any(nil), f.calledWith...)
}

func (f *fakeService) result() (*order.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	o := f.order

	return &o, nil
}

func (f *fakeService) CreateOrder(_ context.Context, u user.User, in ordersvc.CreateOrderInput) (*order.Order, error) {
	f.record("CreateOrder", u.ID)
	f.createInput = in

	return f.result()
}

func (f *fakeService) GetOrders(_ context.Context, u user.User, in ordersvc.GetOrdersInput) ([]order.Order, error) {
	f.record("GetOrders", u.ID)
	f.ordersInput = in
	if f.err != nil {
		return nil, f.err
	}

	return f.orders, nil
}

func (f *fakeService) GetOrder(_ context.Context, u user.User, id int64) (*order.Order, error) {
	f.record("GetOrder", u.ID, id)

	return f.result()
}

func (f *fakeService) EditOrder(_ context.Context, u user.User, id int64, status order.Status) (*order.Order, error) {
	f.record("EditOrder", u.ID, id, status)
	if f.err != nil {
		return nil, f.err
	}
	o := f.order
	o.Status = status

	return &o, nil
}

func (f *fakeService) TakeOrder(_ context.Context, u user.User, id int64) (*order.Order, error) {
	f.record("TakeOrder", u.ID, id)
	if f.err != nil {
		return nil, f.err
	}
	o := f.order
	o.DriverID = &u.ID

	return &o, nil
}

// stream returns the channel a test pushes orders into. It is closed when ctx ends.
func (f *fakeService) stream(ctx context.Context, name string) (<-chan order.Order, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.mu.Lock()
	ch := make(chan order.Order, 1)
	f.streams[name] = ch
	f.mu.Unlock()

	out := make(chan order.Order)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case o := <-ch:
				select {
				case out <- o:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (f *fakeService) push(name string, o order.Order) bool {
	f.mu.Lock()
	ch, ok := f.streams[name]
	f.mu.Unlock()
	if !ok {
		return false
	}
	ch <- o

	return true
}

func (f *fakeService) PendingOrders(ctx context.Context, u user.User) (<-chan order.Order, error) {
	if u.Role != user.RoleOwner {
		return nil, errs.Forbidden("Forbidden resource")
	}

	return f.stream(ctx, "pending")
}

func (f *fakeService) CookedOrders(ctx context.Context, u user.User) (<-chan order.Order, error) {
	if u.Role != user.RoleDelivery {
		return nil, errs.Forbidden("Forbidden resource")
	}

	return f.stream(ctx, "cooked")
}

func (f *fakeService) OrderUpdates(ctx context.Context, u user.User, orderID int64) (<-chan order.Order, error) {
	f.record("OrderUpdates", u.ID, orderID)

	return f.stream(ctx, "updates")
}
