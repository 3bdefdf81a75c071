package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pcshop/internal/models"
	"github.com/Skotchmaster/pcshop/internal/service"
	"github.com/Skotchmaster/pcshop/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

type cartResponse struct {
	Cart *models.Order `json:"cart"`
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	cart, err := h.Svc.GetCart(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cartResponse{Cart: cart})
}

func (h *CartHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart_checkout")

	user, err := currentUser(c)
	if err != nil {
		return err
	}

	order, err := h.Svc.Checkout(ctx, user)
	if err != nil {
		return err
	}

	l.Info("checkout_successful", "order_id", order.ID)
	return c.JSON(http.StatusOK, cartResponse{Cart: order})
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	productID, err := queryUint(c, "productId")
	if err != nil {
		return err
	}

	cart, err := h.Svc.AddItem(c.Request().Context(), user, productID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cartResponse{Cart: cart})
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	itemID, err := pathID(c, "itemId")
	if err != nil {
		return err
	}
	quantity, err := strconv.Atoi(c.QueryParam("quantity"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "quantity is not a number")
	}

	cart, err := h.Svc.UpdateItemQuantity(c.Request().Context(), user, itemID, quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cartResponse{Cart: cart})
}

func (h *CartHTTP) DeleteItem(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	itemID, err := pathID(c, "itemId")
	if err != nil {
		return err
	}

	cart, err := h.Svc.DeleteItem(c.Request().Context(), user, itemID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cartResponse{Cart: cart})
}

func (h *CartHTTP) Clear(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	cart, err := h.Svc.ClearCart(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cartResponse{Cart: cart})
}
