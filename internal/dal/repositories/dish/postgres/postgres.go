package postgresrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/delivery/internal/dal/postgres"
	"github.com/corray333/backend-labs/delivery/internal/service/models/dish"
	"github.com/jackc/pgx/v5"
)

// DishDal represents dish data access layer model.
type DishDal struct {
	Id           int64     `db:"id"`
	RestaurantId int64     `db:"restaurant_id"`
	Name         string    `db:"name"`
	Price        float64   `db:"price"`
	Photo        string    `db:"photo"`
	Description  string    `db:"description"`
	Options      []byte    `db:"options"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// ToModel converts DishDal to service layer Dish model.
func (d *DishDal) ToModel() (*dish.Dish, error) {
	var options []dish.Option
	if len(d.Options) > 0 {
		if err := json.Unmarshal(d.Options, &options); err != nil {
			return nil, fmt.Errorf("failed to decode options of dish %d: %w", d.Id, err)
		}
	}

	return &dish.Dish{
		ID:           d.Id,
		RestaurantID: d.RestaurantId,
		Name:         d.Name,
		Price:        d.Price,
		Photo:        d.Photo,
		Description:  d.Description,
		Options:      options,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

// PostgresDishRepository represents a Postgres dish repository.
type PostgresDishRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresDishRepository creates a new Postgres dish repository.
func NewPostgresDishRepository(conn postgres.Conn) *PostgresDishRepository {
	return &PostgresDishRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetByID loads one dish with its options.
func (r *PostgresDishRepository) GetByID(ctx context.Context, id int64) (*dish.Dish, error) {
	sql, args, err := r.sb.
		Select(
			"id",
			"restaurant_id",
			"name",
			"price",
			"photo",
			"description",
			"options",
			"created_at",
			"updated_at",
		).
		From("dishes").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var dal DishDal
	err = r.conn.QueryRow(ctx, sql, args...).Scan(
		&dal.Id,
		&dal.RestaurantId,
		&dal.Name,
		&dal.Price,
		&dal.Photo,
		&dal.Description,
		&dal.Options,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get dish %d: %w", id, err)
	}

	return dal.ToModel()
}
