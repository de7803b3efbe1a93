package iuserrepo

import (
	"context"

	"github.com/corray333/backend-labs/delivery/internal/service/models/user"
)

// IUserRepository reads users.
type IUserRepository interface {
	// GetByID returns nil when the user does not exist.
	GetByID(ctx context.Context, id int64) (*user.User, error)
}
