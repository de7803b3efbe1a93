package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/delivery/internal/dal/postgres"
	orderrepo "github.com/corray333/backend-labs/delivery/internal/dal/repositories/order/postgres"
	"github.com/corray333/backend-labs/delivery/internal/service/models/order"
	"github.com/corray333/backend-labs/delivery/internal/service/models/restaurant"
	"github.com/jackc/pgx/v5"
)

// RestaurantDal represents restaurant data access layer model.
type RestaurantDal struct {
	Id            int64      `db:"id"`
	Name          string     `db:"name"`
	CoverImg      string     `db:"cover_img"`
	Address       string     `db:"address"`
	CategoryId    *int64     `db:"category_id"`
	OwnerId       int64      `db:"owner_id"`
	IsPromoted    bool       `db:"is_promoted"`
	PromotedUntil *time.Time `db:"promoted_until"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// ToModel converts RestaurantDal to service layer Restaurant model.
func (r *RestaurantDal) ToModel() *restaurant.Restaurant {
	return &restaurant.Restaurant{
		ID:            r.Id,
		Name:          r.Name,
		CoverImg:      r.CoverImg,
		Address:       r.Address,
		CategoryID:    r.CategoryId,
		OwnerID:       r.OwnerId,
		IsPromoted:    r.IsPromoted,
		PromotedUntil: r.PromotedUntil,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (r *RestaurantDal) scanDest() []any {
	return []any{
		&r.Id,
		&r.Name,
		&r.CoverImg,
		&r.Address,
		&r.CategoryId,
		&r.OwnerId,
		&r.IsPromoted,
		&r.PromotedUntil,
		&r.CreatedAt,
		&r.UpdatedAt,
	}
}

var restaurantColumns = []string{
	"id",
	"name",
	"cover_img",
	"address",
	"category_id",
	"owner_id",
	"is_promoted",
	"promoted_until",
	"created_at",
	"updated_at",
}

// PostgresRestaurantRepository represents a Postgres restaurant repository.
type PostgresRestaurantRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresRestaurantRepository creates a new Postgres restaurant repository.
func NewPostgresRestaurantRepository(conn postgres.Conn) *PostgresRestaurantRepository {
	return &PostgresRestaurantRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetByID loads one restaurant.
func (r *PostgresRestaurantRepository) GetByID(ctx context.Context, id int64) (*restaurant.Restaurant, error) {
	sql, args, err := r.sb.
		Select(restaurantColumns...).
		From("restaurants").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var dal RestaurantDal
	if err := r.conn.QueryRow(ctx, sql, args...).Scan(dal.scanDest()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get restaurant %d: %w", id, err)
	}

	return dal.ToModel(), nil
}

// FindByOwner returns every restaurant of an owner, with orders when include.Orders is set.
func (r *PostgresRestaurantRepository) FindByOwner(
	ctx context.Context,
	ownerID int64,
	include restaurant.Include,
) ([]restaurant.Restaurant, error) {
	sql, args, err := r.sb.
		Select(restaurantColumns...).
		From("restaurants").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query restaurants: %w", err)
	}
	defer rows.Close()

	var result []restaurant.Restaurant
	for rows.Next() {
		var dal RestaurantDal
		if err := rows.Scan(dal.scanDest()...); err != nil {
			return nil, fmt.Errorf("failed to scan restaurant: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	if !include.Orders || len(result) == 0 {
		return result, nil
	}

	ids := make([]int64, 0, len(result))
	index := make(map[int64]int, len(result))
	for i, rest := range result {
		ids = append(ids, rest.ID)
		index[rest.ID] = i
	}

	orders, err := orderrepo.NewPostgresOrderRepository(r.conn).
		Query(ctx, &order.QueryOrdersModel{RestaurantIds: ids})
	if err != nil {
		return nil, err
	}

	for _, o := range orders {
		i := index[o.RestaurantID]
		o.Restaurant = &order.Restaurant{
			ID:       result[i].ID,
			Name:     result[i].Name,
			Address:  result[i].Address,
			CoverImg: result[i].CoverImg,
			OwnerID:  result[i].OwnerID,
		}
		result[i].Orders = append(result[i].Orders, o)
	}

	return result, nil
}
