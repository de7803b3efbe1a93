package outbox

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/corray333/backend-labs/delivery/internal/dal/interfaces/ioutboxrepo"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

// publisher sends one message to the broker.
type publisher interface {
	Publish(exchange, routingKey string, msg amqp.Publishing) error
}

// Worker relays order events from the outbox table to RabbitMQ.
type Worker struct {
	outboxRepo   ioutboxrepo.IOutboxRepository
	publisher    publisher
	pollInterval time.Duration
	batchSize    int
	backoffBase  time.Duration
	now          func() time.Time
	stopCh       chan struct{}
	stopOnce     sync.Once
}

// NewWorker creates a new outbox worker.
func NewWorker(
	outboxRepo ioutboxrepo.IOutboxRepository,
	publisher publisher,
) *Worker {
	pollIntervalSeconds := viper.GetInt("rabbitmq.outbox.poll_interval_seconds")
	if pollIntervalSeconds == 0 {
		pollIntervalSeconds = 10
	}

	batchSize := viper.GetInt("rabbitmq.outbox.batch_size")
	if batchSize == 0 {
		batchSize = 100
	}

	retryIntervalSeconds := viper.GetInt("rabbitmq.outbox.retry_interval_seconds")
	if retryIntervalSeconds == 0 {
		retryIntervalSeconds = 30
	}

	return &Worker{
		outboxRepo:   outboxRepo,
		publisher:    publisher,
		pollInterval: time.Duration(pollIntervalSeconds) * time.Second,
		batchSize:    batchSize,
		backoffBase:  time.Duration(retryIntervalSeconds) * time.Second,
		now:          time.Now,
		stopCh:       make(chan struct{}),
	}
}

// Start processes the outbox until ctx is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Outbox worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Outbox worker stopped")

			return
		case <-ticker.C:
			w.processMessages(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// backoff returns the delay before retry number retryCount: base, 2*base, 4*base and so on.
func (w *Worker) backoff(retryCount int) time.Duration {
	return time.Duration(math.Pow(2, float64(retryCount-1)) * float64(w.backoffBase))
}

// processMessages retrieves and publishes pending messages from the outbox.
func (w *Worker) processMessages(ctx context.Context) {
	messages, err := w.outboxRepo.GetPendingMessages(ctx, w.batchSize)
	if err != nil {
		slog.Error("Failed to get pending messages from outbox", "error", err)

		return
	}

	if len(messages) == 0 {
		return
	}

	slog.Info("Processing outbox messages", "count", len(messages))

	for _, msg := range messages {
		err := w.publisher.Publish(
			msg.ExchangeName,
			msg.RoutingKey,
			amqp.Publishing{
				Headers:     amqp.Table{"order_id": msg.OrderID},
				ContentType: msg.ContentType,
				MessageId:   uuid.NewString(),
				Timestamp:   w.now(),
				Type:        msg.RoutingKey,
				Body:        msg.Payload,
			},
		)

		if err != nil {
			msg.Reschedule(err, w.now(), w.backoff)

			log := slog.Warn
			if msg.Exhausted() {
				log = slog.Error
			}
			log("Failed to publish message from outbox",
				"outbox_id", msg.ID,
				"order_id", msg.OrderID,
				"retry_count", msg.RetryCount,
				"exhausted", msg.Exhausted(),
				"next_retry", msg.NextRetryAt,
				"error", err,
			)

			if err := w.outboxRepo.Reschedule(ctx, msg); err != nil {
				slog.Error("Failed to update retry information", "outbox_id", msg.ID, "error", err)
			}

			continue
		}

		if err := w.outboxRepo.Delete(ctx, msg.ID); err != nil {
			slog.Error("Failed to delete message from outbox after successful publish",
				"outbox_id", msg.ID,
				"error", err,
			)

			continue
		}

		slog.Debug("Order event relayed", "outbox_id", msg.ID, "order_id", msg.OrderID, "routing_key", msg.RoutingKey)
	}
}
