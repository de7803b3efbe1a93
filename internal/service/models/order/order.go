package order

import (
	"time"

	"github.com/corray333/backend-labs/delivery/internal/service/models/orderitem"
)

// Order represents one customer purchase from one restaurant.
type Order struct {
	ID           int64     `json:"id"`
	CustomerID   int64     `json:"customerId"`
	DriverID     *int64    `json:"driverId,omitempty"`
	RestaurantID int64     `json:"restaurantId"`
	Total        float64   `json:"total"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// Restaurant and Items are filled only when requested through Include.
	Restaurant *Restaurant            `json:"restaurant,omitempty"`
	Items      []orderitem.OrderItem `json:"items,omitempty"`
}

// Restaurant is the part of the order's restaurant needed by order consumers.
type Restaurant struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	CoverImg string `json:"coverImg"`
	OwnerID  int64  `json:"ownerId"`
}

// OwnerID returns the restaurant owner's id, or 0 when the restaurant is not loaded.
func (o *Order) OwnerID() int64 {
	if o.Restaurant == nil {
		return 0
	}

	return o.Restaurant.OwnerID
}

// HasDriver reports whether a driver is assigned.
func (o *Order) HasDriver() bool {
	return o.DriverID != nil
}

// Parties returns the ids of the users involved in the order.
func (o *Order) Parties() []int64 {
	parties := []int64{o.CustomerID}
	if o.DriverID != nil {
		parties = append(parties, *o.DriverID)
	}
	if owner := o.OwnerID(); owner != 0 {
		parties = append(parties, owner)
	}

	return parties
}

// Include selects the relations loaded together with an order.
type Include struct {
	Restaurant bool
	Items      bool
}
