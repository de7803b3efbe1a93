package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corray333/backend-labs/delivery/internal/service/models/user"
	"github.com/corray333/backend-labs/delivery/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[int64]user.User

func (f fakeUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	if id == 500 {
		return nil, errors.New("db down")
	}
	u, ok := f[id]
	if !ok {
		return nil, nil
	}

	return &u, nil
}

func newAuthenticator(t *testing.T) (*Authenticator, *jwt.Manager) {
	t.Helper()

	tokens := jwt.NewManager("secret")
	users := fakeUsers{1: {ID: 1, Email: "client@example.com", Role: user.RoleClient}}

	return NewAuthenticator(tokens, users), tokens
}

func sign(t *testing.T, m *jwt.Manager, id int64) string {
	t.Helper()

	token, err := m.Sign(id)
	require.NoError(t, err)

	return token
}

func TestAuthenticate(t *testing.T) {
	a, tokens := newAuthenticator(t)

	u, err := a.Authenticate(context.Background(), sign(t, tokens, 1))
	require.NoError(t, err)
	assert.Equal(t, user.RoleClient, u.Role)

	_, err = a.Authenticate(context.Background(), sign(t, tokens, 2))
	assert.ErrorIs(t, err, ErrUnknownUser)

	_, err = a.Authenticate(context.Background(), sign(t, tokens, 500))
	assert.Error(t, err)

	_, err = a.Authenticate(context.Background(), "TOKEN")
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	a, tokens := newAuthenticator(t)
	valid := sign(t, tokens, 1)

	tests := []struct {
		name    string
		headers map[string]string
		wantID  int64
	}{
		{"x-jwt header", map[string]string{"x-jwt": valid}, 1},
		{"bearer header", map[string]string{"Authorization": "Bearer " + valid}, 1},
		{"lowercase scheme", map[string]string{"Authorization": "bearer " + valid}, 1},
		{"no token", nil, 0},
		{"basic scheme", map[string]string{"Authorization": "Basic " + valid}, 0},
		{"bad token", map[string]string{"x-jwt": "TOKEN"}, 0},
		{"unknown user", map[string]string{"x-jwt": sign(t, tokens, 2)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *user.User
			h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = UserFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNoContent, rec.Code)
			if tt.wantID == 0 {
				assert.Nil(t, got)

				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("  Bearer   abc "))
	assert.Empty(t, BearerToken("abc"))
	assert.Empty(t, BearerToken(""))
}
