// Package auth resolves the calling user from a JWT and keeps it in the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/corray333/backend-labs/delivery/internal/dal/interfaces/iuserrepo"
	"github.com/corray333/backend-labs/delivery/internal/service/models/user"
)

// HeaderJWT is the header the token is read from before Authorization.
const HeaderJWT = "x-jwt"

var ErrUnknownUser = errors.New("token refers to an unknown user")

type tokenVerifier interface {
	Verify(token string) (int64, error)
}

type userCtxKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext returns the authenticated user, or nil for anonymous callers.
func UserFromContext(ctx context.Context) *user.User {
	u, _ := ctx.Value(userCtxKey{}).(*user.User)

	return u
}

// Authenticator turns tokens into users.
type Authenticator struct {
	tokens tokenVerifier
	users  iuserrepo.IUserRepository
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(tokens tokenVerifier, users iuserrepo.IUserRepository) *Authenticator {
	return &Authenticator{
		tokens: tokens,
		users:  users,
	}
}

// Authenticate verifies token and loads the user it names.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*user.User, error) {
	id, err := a.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	u, err := a.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if u == nil {
		return nil, ErrUnknownUser
	}

	return u, nil
}

// Middleware attaches the user to requests carrying a valid token.
// Requests without a token, or with a bad one, continue anonymously.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromHeader(r.Header)
		if token == "" {
			next.ServeHTTP(w, r)

			return
		}

		u, err := a.Authenticate(r.Context(), token)
		if err != nil {
			slog.DebugContext(r.Context(), "Request is not authenticated", "error", err)
			next.ServeHTTP(w, r)

			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// TokenFromHeader reads the x-jwt header, falling back to a bearer Authorization header.
func TokenFromHeader(h http.Header) string {
	if token := strings.TrimSpace(h.Get(HeaderJWT)); token != "" {
		return token
	}

	return BearerToken(h.Get("Authorization"))
}

// BearerToken strips the Bearer scheme from an Authorization value.
func BearerToken(value string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}
