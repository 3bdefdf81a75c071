package auth

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pcshop/internal/domain"
	"github.com/Skotchmaster/pcshop/internal/models"
)

// AdminOnly must run after RequireLogin.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := CurrentUser(c)
		if !ok {
			return fmt.Errorf("%w: not logged in", domain.ErrNoAuthentication)
		}
		if user.Role != models.RoleAdmin {
			return fmt.Errorf("%w: you don't have enough rights", domain.ErrForbidden)
		}
		return next(c)
	}
}
