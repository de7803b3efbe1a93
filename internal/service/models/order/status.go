package order

import "fmt"

// Status is a step of the order lifecycle.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCooking   Status = "Cooking"
	StatusCooked    Status = "Cooked"
	StatusPickedUp  Status = "PickedUp"
	StatusDelivered Status = "Delivered"
)

// Ladder is the only path an order may take, in order.
var Ladder = []Status{StatusPending, StatusCooking, StatusCooked, StatusPickedUp, StatusDelivered}

// ParseStatus converts a string into a Status.
func ParseStatus(s string) (Status, error) {
	for _, st := range Ladder {
		if string(st) == s {
			return st, nil
		}
	}

	return "", fmt.Errorf("unknown order status %q", s)
}

// Next returns the status that follows s. The second result is false for the last status.
func (s Status) Next() (Status, bool) {
	for i, st := range Ladder {
		if st == s && i+1 < len(Ladder) {
			return Ladder[i+1], true
		}
	}

	return "", false
}

// CanMoveTo reports whether target is the immediate successor of s.
func (s Status) CanMoveTo(target Status) bool {
	next, ok := s.Next()

	return ok && next == target
}
