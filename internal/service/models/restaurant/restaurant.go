package restaurant

import (
	"time"

	"github.com/corray333/backend-labs/delivery/internal/service/models/order"
)

// Restaurant is owned by exactly one user and belongs to at most one category.
type Restaurant struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	CoverImg      string     `json:"coverImg"`
	Address       string     `json:"address"`
	CategoryID    *int64     `json:"categoryId,omitempty"`
	OwnerID       int64      `json:"ownerId"`
	IsPromoted    bool       `json:"isPromoted"`
	PromotedUntil *time.Time `json:"promotedUntil,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`

	// Orders is filled only when requested through Include.
	Orders []order.Order `json:"orders,omitempty"`
}

// Include selects the relations loaded together with restaurants.
type Include struct {
	Orders bool
}
