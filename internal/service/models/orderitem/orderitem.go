package orderitem

import (
	"time"
)

// Selection is a chosen option of a dish, optionally narrowed to one of its choices.
type Selection struct {
	Name   string  `json:"name"`
	Choice *string `json:"choice,omitempty"`
}

// OrderItem represents one line within an order.
// It keeps the raw selection, not the price computed from it.
type OrderItem struct {
	ID        int64       `json:"id"`
	OrderID   int64       `json:"orderId"`
	DishID    int64       `json:"dishId"`
	Options   []Selection `json:"options"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}
