package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/pcshop/internal/domain"
	"github.com/Skotchmaster/pcshop/internal/models"
)

type stubAuthenticator map[string]*models.User

func (s stubAuthenticator) Authenticate(_ context.Context, access string) (*models.User, error) {
	if u, ok := s[access]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("%w: unknown token", domain.ErrNoAuthentication)
}

func TestRequireLoginAndAdminOnly(t *testing.T) {
	t.Parallel()

	users := stubAuthenticator{
		"user-token":  {ID: 1, Username: "alice", Role: models.RoleUser},
		"admin-token": {ID: 2, Username: "root", Role: models.RoleAdmin},
	}
	ok := func(c echo.Context) error {
		u, found := CurrentUser(c)
		require.True(t, found)
		assert.Equal(t, u.ID, c.Get("user_id"))
		return c.String(http.StatusOK, u.Username)
	}

	tests := []struct {
		name    string
		token   string
		admin   bool
		wantErr error
		want    string
	}{
		{name: "no cookie", wantErr: domain.ErrNoAuthentication},
		{name: "unknown token", token: "forged", wantErr: domain.ErrNoAuthentication},
		{name: "user", token: "user-token", want: "alice"},
		{name: "user on admin route", token: "user-token", admin: true, wantErr: domain.ErrForbidden},
		{name: "admin on admin route", token: "admin-token", admin: true, want: "root"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: AccessCookie, Value: tt.token})
			}
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(req, rec)

			h := ok
			if tt.admin {
				h = AdminOnly(h)
			}
			err := RequireLogin(users)(h)(c)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestCurrentUser_WithoutLogin(t *testing.T) {
	t.Parallel()

	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, ok := CurrentUser(c)
	assert.False(t, ok)
	assert.Empty(t, TokenFromCookie(c, RefreshCookie))
	assert.ErrorIs(t, AdminOnly(func(echo.Context) error { return nil })(c), domain.ErrNoAuthentication)
}
