package ordersvc

import (
	"slices"

	"github.com/corray333/backend-labs/delivery/internal/service/errs"
	"github.com/corray333/backend-labs/delivery/internal/service/models/order"
	"github.com/corray333/backend-labs/delivery/internal/service/models/user"
)

// Operation names an entry point guarded by the permission table.
type Operation string

const (
	OpCreateOrder   Operation = "createOrder"
	OpGetOrders     Operation = "getOrders"
	OpGetOrder      Operation = "getOrder"
	OpEditOrder     Operation = "editOrder"
	OpTakeOrder     Operation = "takeOrder"
	OpPendingOrders Operation = "pendingOrders"
	OpCookedOrders  Operation = "cookedOrders"
	OpOrderUpdates  Operation = "orderUpdates"
)

// anyRole admits every known role.
var anyRole []user.Role

// operationRoles is the role × operation permission table.
var operationRoles = map[Operation][]user.Role{
	OpCreateOrder:   {user.RoleClient},
	OpGetOrders:     anyRole,
	OpGetOrder:      anyRole,
	OpEditOrder:     anyRole,
	OpTakeOrder:     {user.RoleDelivery},
	OpPendingOrders: {user.RoleOwner},
	OpCookedOrders:  {user.RoleDelivery},
	OpOrderUpdates:  anyRole,
}

// statusRoles lists the statuses each role may move an order to.
var statusRoles = map[user.Role][]order.Status{
	user.RoleClient:   {},
	user.RoleOwner:    {order.StatusCooking, order.StatusCooked},
	user.RoleDelivery: {order.StatusPickedUp, order.StatusDelivered},
}

// Allow reports whether role may invoke op.
func Allow(role user.Role, op Operation) error {
	roles, known := operationRoles[op]
	if !known || !role.Valid() {
		return errs.Forbidden(msgForbiddenResource)
	}
	if roles == nil || slices.Contains(roles, role) {
		return nil
	}

	return errs.Forbidden(msgForbiddenResource)
}

// AllowStatus reports whether role may move an order to target.
func AllowStatus(role user.Role, target order.Status) error {
	if slices.Contains(statusRoles[role], target) {
		return nil
	}

	return errs.InvalidTransition(msgRoleCantEdit, role, target)
}

// CanSee reports whether u is the order's customer, its driver or the owner of its restaurant.
// The owner check needs the restaurant relation to be loaded.
func CanSee(u user.User, o *order.Order) bool {
	if o.CustomerID == u.ID {
		return true
	}
	if o.DriverID != nil && *o.DriverID == u.ID {
		return true
	}

	return o.Restaurant != nil && o.Restaurant.OwnerID == u.ID
}
