package ordersvc

// Caller-facing messages.
const (
	msgForbiddenResource  = "Forbidden resource"
	msgRestaurantNotFound = "Restaurant not found."
	msgDishNotFound       = "Dish not found."
	msgOptionNotFound     = "Dish option %s not found."
	msgChoiceNotFound     = "Dish option choice %s not found."
	msgEmptyOrder         = "Order must contain at least one item"
	msgOrderNotFound      = "Order not found"
	msgCantSeeOrder       = "You can't see other peoples' orders"
	msgRoleCantEdit       = "%s can't edit order status to %s"
	msgIllegalTransition  = "Order can't move from %s to %s"
	msgConcurrentEdit     = "Order status was changed concurrently"
	msgAlreadyHasDriver   = "This order already has a driver"
	msgInvalidPage        = "Page must be greater than 0"

	msgCouldNotCreateOrder = "Could not create order"
	msgCouldNotGetOrders   = "Could not get orders"
	msgCouldNotLoadOrder   = "Could not load order"
	msgCouldNotEditOrder   = "Could not edit order"
	msgCouldNotUpdateOrder = "Could not update order"
)
