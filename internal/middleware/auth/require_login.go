package auth

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pcshop/internal/models"
	"github.com/Skotchmaster/pcshop/pkg/logging"
)

type Authenticator interface {
	Authenticate(ctx context.Context, access string) (*models.User, error)
}

// RequireLogin resolves the access_token cookie to a live session. Cookies
// are never cleared here, a rejected client has to log out itself.
func RequireLogin(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			user, err := a.Authenticate(ctx, TokenFromCookie(c, AccessCookie))
			if err != nil {
				logging.FromContext(ctx).Warn("auth_rejected", "path", c.Path(), "error", err)
				return err
			}

			setUserContext(c, user)
			return next(c)
		}
	}
}
