package outbox

import (
	"time"
)

// Message is an order event waiting to be relayed to RabbitMQ.
// It is written in the same transaction as the order change it describes.
type Message struct {
	ID           int64
	OrderID      int64
	ExchangeName string
	RoutingKey   string
	Payload      []byte
	ContentType  string
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextRetryAt  time.Time
}

// Reschedule records a failed delivery attempt. The next attempt is due after backoff(RetryCount).
func (m *Message) Reschedule(cause error, now time.Time, backoff func(retry int) time.Duration) {
	m.RetryCount++
	m.LastError = cause.Error()
	m.UpdatedAt = now
	m.NextRetryAt = now.Add(backoff(m.RetryCount))
}

// Exhausted reports whether the relay has given up on the message.
func (m Message) Exhausted() bool {
	return m.RetryCount >= m.MaxRetries
}

// Event is the payload of an order outbox message.
type Event struct {
	Type         string    `json:"type"`
	OrderID      int64     `json:"order_id"`
	RestaurantID int64     `json:"restaurant_id"`
	CustomerID   int64     `json:"customer_id"`
	DriverID     *int64    `json:"driver_id,omitempty"`
	OldStatus    string    `json:"old_status,omitempty"`
	NewStatus    string    `json:"new_status"`
	Total        float64   `json:"total"`
	ChangedBy    int64     `json:"changed_by"`
	Timestamp    time.Time `json:"timestamp"`
}

// Routing keys of order events.
const (
	RoutingKeyOrderCreated   = "order.created"
	RoutingKeyStatusChanged  = "order.status_changed"
	RoutingKeyDriverAssigned = "order.driver_assigned"
)
