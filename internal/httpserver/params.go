package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pcshop/internal/domain"
	"github.com/Skotchmaster/pcshop/internal/middleware/auth"
	"github.com/Skotchmaster/pcshop/internal/models"
	"github.com/Skotchmaster/pcshop/internal/util"
)

func pathID(c echo.Context, name string) (uint, error) {
	id, err := util.ParseUint(c.Param(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s is not a number", name))
	}
	return id, nil
}

func queryUint(c echo.Context, name string) (uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s is required", name))
	}
	v, err := util.ParseUint(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s is not a number", name))
	}
	return v, nil
}

func currentUser(c echo.Context) (*models.User, error) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return nil, fmt.Errorf("%w: not logged in", domain.ErrNoAuthentication)
	}
	return user, nil
}
