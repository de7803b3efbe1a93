package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/delivery/internal/dal/postgres"
	"github.com/corray333/backend-labs/delivery/internal/service/models/outbox"
	"github.com/jackc/pgx/v5"
)

const table = "outbox"

var columns = []string{
	"id",
	"order_id",
	"exchange_name",
	"routing_key",
	"payload",
	"content_type",
	"retry_count",
	"max_retries",
	"last_error",
	"created_at",
	"updated_at",
	"next_retry_at",
}

// OutboxRepository implements the outbox repository for PostgreSQL.
type OutboxRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
	now  func() time.Time
}

// NewOutboxRepository creates a new outbox repository.
func NewOutboxRepository(conn postgres.Conn) *OutboxRepository {
	return &OutboxRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now:  time.Now,
	}
}

// Insert adds a message to the outbox. The id column is assigned by the database.
func (r *OutboxRepository) Insert(ctx context.Context, msg outbox.Message) error {
	query, args, err := r.sb.Insert(table).
		Columns(columns[1:]...).
		Values(
			msg.OrderID,
			msg.ExchangeName,
			msg.RoutingKey,
			msg.Payload,
			msg.ContentType,
			msg.RetryCount,
			msg.MaxRetries,
			msg.LastError,
			msg.CreatedAt,
			msg.UpdatedAt,
			msg.NextRetryAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err = r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert outbox message for order %d: %w", msg.OrderID, err)
	}

	return nil
}

// GetPendingMessages retrieves due messages ordered so that events of one order keep their sequence.
func (r *OutboxRepository) GetPendingMessages(ctx context.Context, limit int) ([]outbox.Message, error) {
	query, args, err := r.sb.Select(columns...).
		From(table).
		Where(sq.LtOrEq{"next_retry_at": r.now()}).
		Where(sq.Expr("retry_count < max_retries")).
		OrderBy("next_retry_at ASC", "id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, scanMessage)
	if err != nil {
		return nil, fmt.Errorf("failed to scan outbox messages: %w", err)
	}

	return messages, nil
}

func scanMessage(row pgx.CollectableRow) (outbox.Message, error) {
	var msg outbox.Message
	err := row.Scan(
		&msg.ID,
		&msg.OrderID,
		&msg.ExchangeName,
		&msg.RoutingKey,
		&msg.Payload,
		&msg.ContentType,
		&msg.RetryCount,
		&msg.MaxRetries,
		&msg.LastError,
		&msg.CreatedAt,
		&msg.UpdatedAt,
		&msg.NextRetryAt,
	)

	return msg, err
}

// Delete removes a message after successful delivery.
func (r *OutboxRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.sb.Delete(table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err = r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete outbox message %d: %w", id, err)
	}

	return nil
}

// Reschedule writes the retry counters of msg back to its row.
func (r *OutboxRepository) Reschedule(ctx context.Context, msg outbox.Message) error {
	query, args, err := r.sb.Update(table).
		SetMap(map[string]any{
			"retry_count":   msg.RetryCount,
			"last_error":    msg.LastError,
			"next_retry_at": msg.NextRetryAt,
			"updated_at":    r.now(),
		}).
		Where(sq.Eq{"id": msg.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	if _, err = r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to reschedule outbox message %d: %w", msg.ID, err)
	}

	return nil
}
