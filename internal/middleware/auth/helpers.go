package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pcshop/internal/models"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	userKey = "user"
)

// TokenFromCookie returns the cookie value or "" when the cookie is absent.
func TokenFromCookie(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}

func setUserContext(c echo.Context, user *models.User) {
	c.Set(userKey, user)
	c.Set("user_id", user.ID)
	c.Set("role", string(user.Role))
}

// CurrentUser returns the user resolved by RequireLogin.
func CurrentUser(c echo.Context) (*models.User, bool) {
	user, ok := c.Get(userKey).(*models.User)
	return user, ok && user != nil
}
