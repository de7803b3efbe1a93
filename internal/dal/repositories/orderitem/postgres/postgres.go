package postgresrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/delivery/internal/dal/postgres"
	"github.com/corray333/backend-labs/delivery/internal/service/models/orderitem"
)

// OrderItemDal represents order item data access layer model.
type OrderItemDal struct {
	Id        int64     `db:"id"`
	OrderId   int64     `db:"order_id"`
	DishId    int64     `db:"dish_id"`
	Options   []byte    `db:"options"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ToModel converts OrderItemDal to service layer OrderItem model.
func (oi *OrderItemDal) ToModel() (*orderitem.OrderItem, error) {
	options := []orderitem.Selection{}
	if len(oi.Options) > 0 {
		if err := json.Unmarshal(oi.Options, &options); err != nil {
			return nil, fmt.Errorf("failed to decode options of order item %d: %w", oi.Id, err)
		}
	}

	return &orderitem.OrderItem{
		ID:        oi.Id,
		OrderID:   oi.OrderId,
		DishID:    oi.DishId,
		Options:   options,
		CreatedAt: oi.CreatedAt,
		UpdatedAt: oi.UpdatedAt,
	}, nil
}

// OrderItemDalFromModel converts service layer OrderItem model to OrderItemDal.
func OrderItemDalFromModel(oi *orderitem.OrderItem) (*OrderItemDal, error) {
	options := oi.Options
	if options == nil {
		options = []orderitem.Selection{}
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order item options: %w", err)
	}

	return &OrderItemDal{
		Id:        oi.ID,
		OrderId:   oi.OrderID,
		DishId:    oi.DishID,
		Options:   raw,
		CreatedAt: oi.CreatedAt,
		UpdatedAt: oi.UpdatedAt,
	}, nil
}

var orderItemColumns = []string{
	"id",
	"order_id",
	"dish_id",
	"options",
	"created_at",
	"updated_at",
}

// PostgresOrderItemRepository represents a Postgres order item repository.
type PostgresOrderItemRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderItemRepository creates a new Postgres order item repository.
func NewPostgresOrderItemRepository(conn postgres.Conn) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// BulkInsert inserts order items in one statement and returns them with ids, in input order.
func (r *PostgresOrderItemRepository) BulkInsert(
	ctx context.Context,
	orderItems []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	if len(orderItems) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	query := r.sb.
		Insert("order_items").
		Columns("order_id", "dish_id", "options", "created_at", "updated_at").
		Suffix("RETURNING " + strings.Join(orderItemColumns, ", "))

	for i := range orderItems {
		dal, err := OrderItemDalFromModel(&orderItems[i])
		if err != nil {
			return nil, err
		}
		query = query.Values(dal.OrderId, dal.DishId, dal.Options, dal.CreatedAt, dal.UpdatedAt)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert order items: %w", err)
	}
	defer rows.Close()

	result := make([]orderitem.OrderItem, 0, len(orderItems))
	for rows.Next() {
		var dal OrderItemDal
		if err := rows.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.DishId,
			&dal.Options,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		model, err := dal.ToModel()
		if err != nil {
			return nil, err
		}
		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// Query retrieves order items based on filter criteria.
func (r *PostgresOrderItemRepository) Query(
	ctx context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	query := r.sb.
		Select(orderItemColumns...).
		From("order_items").
		OrderBy("id ASC")

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"id": filter.Ids})
	}

	if len(filter.OrderIds) > 0 {
		query = query.Where(sq.Eq{"order_id": filter.OrderIds})
	}

	if len(filter.DishIds) > 0 {
		query = query.Where(sq.Eq{"dish_id": filter.DishIds})
	}

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var result []orderitem.OrderItem
	for rows.Next() {
		var dal OrderItemDal
		if err := rows.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.DishId,
			&dal.Options,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		model, err := dal.ToModel()
		if err != nil {
			return nil, err
		}
		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
