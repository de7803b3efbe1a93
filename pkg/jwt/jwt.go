// Package jwt signs and verifies the HS256 tokens that identify API callers.
package jwt

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the id of the authenticated user.
type Claims struct {
	ID int64 `json:"id"`
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens with one shared secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// option is a function that configures the Manager.
type option func(*Manager)

// WithTTL makes signed tokens expire after ttl. Zero means tokens never expire.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithTTL(ttl time.Duration) option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// NewManager creates a Manager using secret.
func NewManager(secret string, opts ...option) *Manager {
	m := &Manager{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// MustNewManager creates a Manager from the JWT_SECRET environment variable.
func MustNewManager(opts ...option) *Manager {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("JWT_SECRET is not set")
	}

	return NewManager(secret, opts...)
}

// Sign issues a token for the user id.
func (m *Manager) Sign(id int64) (string, error) {
	claims := Claims{
		ID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(m.now()),
		},
	}
	if m.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(m.now().Add(m.ttl))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return token, nil
}

// Verify checks the token signature and returns the user id it carries.
func (m *Manager) Verify(token string) (int64, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.ID <= 0 {
		return 0, ErrInvalidToken
	}

	return claims.ID, nil
}
