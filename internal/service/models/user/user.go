package user

import "time"

// Role determines which order operations a user may invoke.
type Role string

const (
	RoleClient   Role = "Client"
	RoleOwner    Role = "Owner"
	RoleDelivery Role = "Delivery"
)

// Roles lists every known role.
var Roles = []Role{RoleClient, RoleOwner, RoleDelivery}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleOwner, RoleDelivery:
		return true
	}

	return false
}

// User is an authenticated caller: a customer, a restaurant owner or a driver.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
