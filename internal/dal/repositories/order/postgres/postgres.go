package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/delivery/internal/dal/postgres"
	orderitemrepo "github.com/corray333/backend-labs/delivery/internal/dal/repositories/orderitem/postgres"
	"github.com/corray333/backend-labs/delivery/internal/service/models/order"
	"github.com/corray333/backend-labs/delivery/internal/service/models/orderitem"
	"github.com/jackc/pgx/v5"
)

// OrderDal represents order data access layer model.
type OrderDal struct {
	Id           int64     `db:"id"`
	CustomerId   int64     `db:"customer_id"`
	DriverId     *int64    `db:"driver_id"`
	RestaurantId int64     `db:"restaurant_id"`
	Total        float64   `db:"total"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// ToModel converts OrderDal to service layer Order model.
func (o *OrderDal) ToModel() (*order.Order, error) {
	status, err := order.ParseStatus(o.Status)
	if err != nil {
		return nil, fmt.Errorf("order %d: %w", o.Id, err)
	}

	return &order.Order{
		ID:           o.Id,
		CustomerID:   o.CustomerId,
		DriverID:     o.DriverId,
		RestaurantID: o.RestaurantId,
		Total:        o.Total,
		Status:       status,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}, nil
}

// restaurantDal holds the joined restaurant columns, all nullable because of the LEFT JOIN.
type restaurantDal struct {
	Id       *int64
	Name     *string
	Address  *string
	CoverImg *string
	OwnerId  *int64
}

func (r *restaurantDal) toModel() *order.Restaurant {
	if r.Id == nil {
		return nil
	}

	return &order.Restaurant{
		ID:       *r.Id,
		Name:     deref(r.Name),
		Address:  deref(r.Address),
		CoverImg: deref(r.CoverImg),
		OwnerID:  deref(r.OwnerId),
	}
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}

	return *v
}

var orderColumns = []string{
	"o.id",
	"o.customer_id",
	"o.driver_id",
	"o.restaurant_id",
	"o.total",
	"o.status",
	"o.created_at",
	"o.updated_at",
}

// PostgresOrderRepository represents a Postgres order repository.
type PostgresOrderRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderRepository creates a new Postgres order repository.
func NewPostgresOrderRepository(conn postgres.Conn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Create inserts an order. Items are stored separately by the order item repository.
func (r *PostgresOrderRepository) Create(ctx context.Context, o order.Order) (order.Order, error) {
	sql, args, err := r.sb.
		Insert("orders").
		Columns("customer_id", "driver_id", "restaurant_id", "total", "status", "created_at", "updated_at").
		Values(o.CustomerID, o.DriverID, o.RestaurantID, o.Total, string(o.Status), o.CreatedAt, o.UpdatedAt).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	return o, nil
}

// GetByID loads one order with the requested relations.
func (r *PostgresOrderRepository) GetByID(
	ctx context.Context,
	id int64,
	include order.Include,
) (*order.Order, error) {
	query := r.sb.
		Select(orderColumns...).
		From("orders o").
		Where(sq.Eq{"o.id": id})

	if include.Restaurant {
		query = query.
			Columns("r.id", "r.name", "r.address", "r.cover_img", "r.owner_id").
			LeftJoin("restaurants r ON r.id = o.restaurant_id")
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var (
		dal OrderDal
		rd  restaurantDal
	)
	dest := []any{
		&dal.Id,
		&dal.CustomerId,
		&dal.DriverId,
		&dal.RestaurantId,
		&dal.Total,
		&dal.Status,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	}
	if include.Restaurant {
		dest = append(dest, &rd.Id, &rd.Name, &rd.Address, &rd.CoverImg, &rd.OwnerId)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}

	model, err := dal.ToModel()
	if err != nil {
		return nil, err
	}
	if include.Restaurant {
		model.Restaurant = rd.toModel()
	}

	if include.Items {
		items, err := orderitemrepo.NewPostgresOrderItemRepository(r.conn).
			Query(ctx, &orderitem.QueryOrderItemsModel{OrderIds: []int64{id}})
		if err != nil {
			return nil, err
		}
		model.Items = items
	}

	return model, nil
}

// Query retrieves orders based on filter criteria, newest first.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	query := r.sb.
		Select(orderColumns...).
		From("orders o").
		OrderBy("o.created_at DESC", "o.id DESC")

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"o.id": filter.Ids})
	}

	if len(filter.CustomerIds) > 0 {
		query = query.Where(sq.Eq{"o.customer_id": filter.CustomerIds})
	}

	if len(filter.DriverIds) > 0 {
		query = query.Where(sq.Eq{"o.driver_id": filter.DriverIds})
	}

	if len(filter.RestaurantIds) > 0 {
		query = query.Where(sq.Eq{"o.restaurant_id": filter.RestaurantIds})
	}

	if filter.Status != nil {
		query = query.Where(sq.Eq{"o.status": string(*filter.Status)})
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
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	result := []order.Order{}
	for rows.Next() {
		var dal OrderDal
		err := rows.Scan(
			&dal.Id,
			&dal.CustomerId,
			&dal.DriverId,
			&dal.RestaurantId,
			&dal.Total,
			&dal.Status,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		model, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order dal to model: %w", err)
		}
		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// UpdateStatus applies a status change only if the order is still in status from.
func (r *PostgresOrderRepository) UpdateStatus(
	ctx context.Context,
	id int64,
	from, to order.Status,
) (bool, error) {
	sql, args, err := r.sb.
		Update("orders").
		Set("status", string(to)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id, "status": string(from)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update status of order %d: %w", id, err)
	}

	return tag.RowsAffected() == 1, nil
}

// AssignDriver claims an order for a driver if nobody has claimed it yet.
func (r *PostgresOrderRepository) AssignDriver(ctx context.Context, id, driverID int64) (bool, error) {
	sql, args, err := r.sb.
		Update("orders").
		Set("driver_id", driverID).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id, "driver_id": nil}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("failed to assign driver to order %d: %w", id, err)
	}

	return tag.RowsAffected() == 1, nil
}
