package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/delivery/internal/dal/postgres"
	"github.com/corray333/backend-labs/delivery/internal/service/models/user"
	"github.com/jackc/pgx/v5"
)

// UserDal represents user data access layer model.
type UserDal struct {
	Id        int64     `db:"id"`
	Email     string    `db:"email"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ToModel converts UserDal to service layer User model.
func (u *UserDal) ToModel() (*user.User, error) {
	role := user.Role(u.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("user %d has unknown role %q", u.Id, u.Role)
	}

	return &user.User{
		ID:        u.Id,
		Email:     u.Email,
		Role:      role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}, nil
}

// PostgresUserRepository represents a Postgres user repository.
type PostgresUserRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresUserRepository creates a new Postgres user repository.
func NewPostgresUserRepository(conn postgres.Conn) *PostgresUserRepository {
	return &PostgresUserRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetByID loads one user.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	sql, args, err := r.sb.
		Select("id", "email", "role", "created_at", "updated_at").
		From("users").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var dal UserDal
	err = r.conn.QueryRow(ctx, sql, args...).Scan(
		&dal.Id,
		&dal.Email,
		&dal.Role,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}

	return dal.ToModel()
}
