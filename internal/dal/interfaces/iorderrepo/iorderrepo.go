package iorderrepo

import (
	"context"

	"github.com/corray333/backend-labs/delivery/internal/service/models/order"
)

// IOrderRepository is an interface for order postgres repository.
type IOrderRepository interface {
	// Create inserts an order and returns it with its id and timestamps.
	Create(ctx context.Context, o order.Order) (order.Order, error)
	// GetByID returns nil when the order does not exist.
	GetByID(ctx context.Context, id int64, include order.Include) (*order.Order, error)
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	// UpdateStatus moves the order from one status to another.
	// It reports false when the order is no longer in status from.
	UpdateStatus(ctx context.Context, id int64, from, to order.Status) (bool, error)
	// AssignDriver sets the driver of an order that has none.
	// It reports false when another driver got there first.
	AssignDriver(ctx context.Context, id, driverID int64) (bool, error)
}
