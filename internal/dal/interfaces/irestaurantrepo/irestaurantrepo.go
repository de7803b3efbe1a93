package irestaurantrepo

import (
	"context"

	"github.com/corray333/backend-labs/delivery/internal/service/models/restaurant"
)

// IRestaurantRepository reads restaurants and their orders.
type IRestaurantRepository interface {
	// GetByID returns nil when the restaurant does not exist.
	GetByID(ctx context.Context, id int64) (*restaurant.Restaurant, error)
	FindByOwner(ctx context.Context, ownerID int64, include restaurant.Include) ([]restaurant.Restaurant, error)
}
