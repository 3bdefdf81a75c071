package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/pcshop/internal/middleware/auth"
	"github.com/Skotchmaster/pcshop/internal/models"
)

func TestLogin_SetsSessionCookies(t *testing.T) {
	t.Parallel()

	s := newServer(t)
	cookies := s.signIn(t, "alice", models.RoleUser)

	access := cookieNamed(cookies, auth.AccessCookie)
	refresh := cookieNamed(cookies, auth.RefreshCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)

	for _, ck := range []*http.Cookie{access, refresh} {
		assert.NotEmpty(t, ck.Value)
		assert.Equal(t, "/", ck.Path)
		assert.True(t, ck.Secure)
		assert.True(t, ck.HttpOnly)
		assert.Equal(t, http.SameSiteNoneMode, ck.SameSite)
	}
	assert.Equal(t, 604800, access.MaxAge)
	assert.Equal(t, 86400, refresh.MaxAge)
	// The access cookie outlives the refresh cookie; clients rely on it.
	assert.Greater(t, access.MaxAge, refresh.MaxAge)

	assert.EqualValues(t, 1, countRows(t, s, &models.RefreshToken{}))
	assert.EqualValues(t, 1, countRows(t, s, &models.AccessToken{}))
}

func TestLogin_Rejections(t *testing.T) {
	t.Parallel()

	s := newServer(t)
	s.signIn(t, "alice", models.RoleUser)

	tests := []struct {
		name     string
		body     echo.Map
		wantCode int
		wantMsg  string
	}{
		{"wrong password", echo.Map{"username": "alice", "password": "nope"}, http.StatusUnauthorized, "Bad credentials"},
		{"unknown user", echo.Map{"username": "bob", "password": "secret123"}, http.StatusUnauthorized, "Bad credentials"},
		{"email principal", echo.Map{"email": "alice@x.com", "password": "secret123"}, http.StatusOK, "Login success"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/auth/login", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantMsg, message(t, rec))
			if tt.wantCode != http.StatusOK {
				assert.Empty(t, rec.Result().Cookies())
			}
		})
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()

	s := newServer(t)
	body := echo.Map{
		"firstname": "Alice",
		"lastname":  "Liddell",
		"username":  "alice",
		"email":     "alice@x.com",
		"password":  "secret123",
		"role":      "ADMIN",
	}

	rec := s.do(t, http.MethodPost, "/api/auth/register", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	u, err := s.users.FindByUsername(t.Context(), "alice")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role, "self registration never grants admin")

	rec = s.do(t, http.MethodPost, "/api/auth/register", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	body["username"] = "  "
	body["email"] = "other@x.com"
	rec = s.do(t, http.MethodPost, "/api/auth/register", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshToken_SetsOnlyAccessCookie(t *testing.T) {
	t.Parallel()

	s := newServer(t)
	cookies := s.signIn(t, "alice", models.RoleUser)
	refresh := cookieNamed(cookies, auth.RefreshCookie)

	s.clock.Advance(time.Minute)
	rec := s.do(t, http.MethodPost, "/api/auth/refresh-token", nil, refresh)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := rec.Result().Cookies()
	require.Len(t, got, 1)
	assert.Equal(t, auth.AccessCookie, got[0].Name)
	assert.Equal(t, AccessCookieMaxAge, got[0].MaxAge)
	assert.EqualValues(t, 1, countRows(t, s, &models.RefreshToken{}))

	rec = s.do(t, http.MethodGet, "/api/cart", nil, got[0])
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/refresh-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No refresh token is presented", message(t, rec))
}

func TestLogout(t *testing.T) {
	t.Parallel()

	s := newServer(t)
	cookies := s.signIn(t, "alice", models.RoleUser)

	rec := s.do(t, http.MethodPost, "/api/auth/logout", nil, cookies...)
	require.Equal(t, http.StatusNoContent, rec.Code)
	for _, ck := range rec.Result().Cookies() {
		assert.Negative(t, ck.MaxAge, ck.Name)
	}
	assert.EqualValues(t, 0, countRows(t, s, &models.AccessToken{}))

	rec = s.do(t, http.MethodGet, "/api/cart", nil, cookies...)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestChangePassword_TerminatesOtherSessions(t *testing.T) {
	t.Parallel()

	s := newServer(t)
	first := s.signIn(t, "alice", models.RoleUser)
	rec := s.do(t, http.MethodPost, "/api/auth/login", echo.Map{"username": "alice", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	second := rec.Result().Cookies()

	rec = s.do(t, http.MethodPost, "/api/auth/change-password",
		echo.Map{"current_password": "wrong", "new_password": "changed"}, second...)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Passwords do not match", message(t, rec))

	rec = s.do(t, http.MethodPost, "/api/auth/change-password",
		echo.Map{"current_password": "secret123", "new_password": "changed"}, second...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/cart", nil, first...).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/cart", nil, second...).Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", echo.Map{"username": "alice", "password": "changed"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTerminateOther(t *testing.T) {
	t.Parallel()

	s := newServer(t)
	first := s.signIn(t, "alice", models.RoleUser)
	rec := s.do(t, http.MethodPost, "/api/auth/login", echo.Map{"username": "alice", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	second := rec.Result().Cookies()

	rec = s.do(t, http.MethodPost, "/api/auth/terminate-other", nil, second...)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/cart", nil, first...).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/cart", nil, second...).Code)

	rec = s.do(t, http.MethodPost, "/api/auth/terminate-other", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpiredAccessTokenIsForbidden(t *testing.T) {
	t.Parallel()

	s := newServer(t)
	cookies := s.signIn(t, "alice", models.RoleUser)

	s.clock.Advance(2 * time.Hour)
	rec := s.do(t, http.MethodGet, "/api/cart", nil, cookies...)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Result().Cookies(), "rejected sessions keep their cookies")

	rec = s.do(t, http.MethodPost, "/api/auth/refresh-token", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodGet, "/api/cart", nil, rec.Result().Cookies()...)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func countRows(t *testing.T, s *testServer, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.repo.DB.Model(model).Count(&n).Error)
	return n
}
