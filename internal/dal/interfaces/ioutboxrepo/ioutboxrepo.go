package ioutboxrepo

import (
	"context"

	"github.com/corray333/backend-labs/delivery/internal/service/models/outbox"
)

// IOutboxRepository stores order events until the relay hands them to RabbitMQ.
type IOutboxRepository interface {
	Insert(ctx context.Context, msg outbox.Message) error

	// GetPendingMessages returns due messages that still have retries left, oldest first.
	GetPendingMessages(ctx context.Context, limit int) ([]outbox.Message, error)

	Delete(ctx context.Context, id int64) error

	// Reschedule persists the retry bookkeeping of msg.
	Reschedule(ctx context.Context, msg outbox.Message) error
}
