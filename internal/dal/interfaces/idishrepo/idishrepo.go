package idishrepo

import (
	"context"

	"github.com/corray333/backend-labs/delivery/internal/service/models/dish"
)

// IDishRepository reads menu items.
type IDishRepository interface {
	// GetByID returns nil when the dish does not exist.
	GetByID(ctx context.Context, id int64) (*dish.Dish, error)
}
