package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pcshop/internal/service"
	"github.com/Skotchmaster/pcshop/pkg/logging"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

// List returns every order, or the orders of ?userId= when given.
func (h *OrderHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()

	if c.QueryParam("userId") != "" {
		userID, err := queryUint(c, "userId")
		if err != nil {
			return err
		}
		orders, err := h.Svc.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, orders)
	}

	orders, err := h.Svc.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) CurrentUser(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	orders, err := h.Svc.ListByUser(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order_delete")

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return err
	}

	l.Info("order_deleted", "order_id", id)
	return c.NoContent(http.StatusNoContent)
}
