package ordersvc

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/corray333/backend-labs/delivery/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/delivery/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/delivery/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/delivery/internal/service/models/dish"
	"github.com/corray333/backend-labs/delivery/internal/service/models/order"
	"github.com/corray333/backend-labs/delivery/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/delivery/internal/service/models/outbox"
	"github.com/corray333/backend-labs/delivery/internal/service/models/restaurant"
)

// store is an in-memory stand-in for the Postgres schema.
type store struct {
	mu          sync.Mutex
	restaurants map[int64]restaurant.Restaurant
	dishes      map[int64]dish.Dish
	orders      map[int64]order.Order
	items       []orderitem.OrderItem
	outbox      []outbox.Message
	nextOrderID int64
	nextItemID  int64

	// err is returned by every read when set.
	err error
	// staleWrites makes guarded updates lose, as if another request changed the row first.
	staleWrites bool

	begins  int
	commits int
}

func newStore() *store {
	return &store{
		restaurants: map[int64]restaurant.Restaurant{},
		dishes:      map[int64]dish.Dish{},
		orders:      map[int64]order.Order{},
		nextOrderID: 1,
		nextItemID:  1,
	}
}

func (s *store) restaurantRef(id int64) *order.Restaurant {
	r, ok := s.restaurants[id]
	if !ok {
		return nil
	}

	return &order.Restaurant{ID: r.ID, Name: r.Name, Address: r.Address, CoverImg: r.CoverImg, OwnerID: r.OwnerID}
}

func (s *store) addOrder(o order.Order) order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID == 0 {
		o.ID = s.nextOrderID
	}
	if o.ID >= s.nextOrderID {
		s.nextOrderID = o.ID + 1
	}
	if o.Status == "" {
		o.Status = order.StatusPending
	}
	s.orders[o.ID] = o

	return o
}

func (s *store) order(id int64) order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.orders[id]
}

func (s *store) outboxKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.outbox))
	for _, m := range s.outbox {
		keys = append(keys, m.RoutingKey)
	}

	return keys
}

type fakeRestaurantRepo struct{ s *store }

func (r fakeRestaurantRepo) GetByID(_ context.Context, id int64) (*restaurant.Restaurant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.err != nil {
		return nil, r.s.err
	}
	rest, ok := r.s.restaurants[id]
	if !ok {
		return nil, nil
	}

	return &rest, nil
}

func (r fakeRestaurantRepo) FindByOwner(
	_ context.Context,
	ownerID int64,
	include restaurant.Include,
) ([]restaurant.Restaurant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.err != nil {
		return nil, r.s.err
	}

	var result []restaurant.Restaurant
	for _, rest := range r.s.restaurants {
		if rest.OwnerID != ownerID {
			continue
		}
		if include.Orders {
			for _, o := range r.s.orders {
				if o.RestaurantID == rest.ID {
					o.Restaurant = r.s.restaurantRef(rest.ID)
					rest.Orders = append(rest.Orders, o)
				}
			}
			sort.Slice(rest.Orders, func(i, j int) bool { return rest.Orders[i].ID < rest.Orders[j].ID })
		}
		result = append(result, rest)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result, nil
}

type fakeDishRepo struct{ s *store }

func (r fakeDishRepo) GetByID(_ context.Context, id int64) (*dish.Dish, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.err != nil {
		return nil, r.s.err
	}
	d, ok := r.s.dishes[id]
	if !ok {
		return nil, nil
	}

	return &d, nil
}

type fakeOrderRepo struct{ s *store }

func (r fakeOrderRepo) Create(_ context.Context, o order.Order) (order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o.ID = r.s.nextOrderID
	r.s.nextOrderID++
	r.s.orders[o.ID] = o

	return o, nil
}

func (r fakeOrderRepo) GetByID(_ context.Context, id int64, include order.Include) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.err != nil {
		return nil, r.s.err
	}
	o, ok := r.s.orders[id]
	if !ok {
		return nil, nil
	}
	if include.Restaurant {
		o.Restaurant = r.s.restaurantRef(o.RestaurantID)
	}
	if include.Items {
		for _, item := range r.s.items {
			if item.OrderID == id {
				o.Items = append(o.Items, item)
			}
		}
	}

	return &o, nil
}

func (r fakeOrderRepo) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.err != nil {
		return nil, r.s.err
	}

	matches := func(ids []int64, id *int64) bool {
		return len(ids) == 0 || (id != nil && slices.Contains(ids, *id))
	}

	result := []order.Order{}
	for _, o := range r.s.orders {
		if !matches(filter.Ids, &o.ID) ||
			!matches(filter.CustomerIds, &o.CustomerID) ||
			!matches(filter.DriverIds, o.DriverID) ||
			!matches(filter.RestaurantIds, &o.RestaurantID) {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		result = append(result, o)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	if filter.Offset >= len(result) {
		return []order.Order{}, nil
	}
	result = result[filter.Offset:]
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}

	return result, nil
}

func (r fakeOrderRepo) UpdateStatus(_ context.Context, id int64, from, to order.Status) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok || o.Status != from || r.s.staleWrites {
		return false, nil
	}
	o.Status = to
	r.s.orders[id] = o

	return true, nil
}

func (r fakeOrderRepo) AssignDriver(_ context.Context, id, driverID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok || o.DriverID != nil || r.s.staleWrites {
		return false, nil
	}
	o.DriverID = &driverID
	r.s.orders[id] = o

	return true, nil
}

type fakeOrderItemRepo struct{ s *store }

func (r fakeOrderItemRepo) BulkInsert(_ context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make([]orderitem.OrderItem, 0, len(items))
	for _, item := range items {
		item.ID = r.s.nextItemID
		r.s.nextItemID++
		r.s.items = append(r.s.items, item)
		result = append(result, item)
	}

	return result, nil
}

func (r fakeOrderItemRepo) Query(_ context.Context, filter *orderitem.QueryOrderItemsModel) ([]orderitem.OrderItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var result []orderitem.OrderItem
	for _, item := range r.s.items {
		if len(filter.OrderIds) == 0 || slices.Contains(filter.OrderIds, item.OrderID) {
			result = append(result, item)
		}
	}

	return result, nil
}

type fakeOutboxRepo struct{ s *store }

func (r fakeOutboxRepo) Insert(_ context.Context, msg outbox.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	msg.ID = int64(len(r.s.outbox) + 1)
	r.s.outbox = append(r.s.outbox, msg)

	return nil
}

func (r fakeOutboxRepo) GetPendingMessages(context.Context, int) ([]outbox.Message, error) {
	return nil, nil
}

func (r fakeOutboxRepo) Delete(context.Context, int64) error {
	return nil
}

func (r fakeOutboxRepo) Reschedule(context.Context, outbox.Message) error {
	return nil
}

// fakeUOW applies writes immediately and only counts transaction boundaries.
type fakeUOW struct {
	s    *store
	open bool
}

func (u *fakeUOW) Begin(context.Context) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	u.open = true
	u.s.begins++

	return nil
}

func (u *fakeUOW) Commit(context.Context) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	if u.open {
		u.s.commits++
	}
	u.open = false

	return nil
}

func (u *fakeUOW) Rollback(context.Context) error {
	u.open = false

	return nil
}

func (u *fakeUOW) OrderRepository() iorderrepo.IOrderRepository {
	return fakeOrderRepo{u.s}
}

func (u *fakeUOW) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return fakeOrderItemRepo{u.s}
}

func (u *fakeUOW) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return fakeOutboxRepo{u.s}
}
