package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pcshop/internal/service"
	"github.com/Skotchmaster/pcshop/internal/util"
	"github.com/Skotchmaster/pcshop/pkg/logging"
)

type ProductHTTP struct {
	Svc *service.CatalogService
}

// Create stores one product, or a whole batch when ?multiple is present.
func (h *ProductHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product_create")

	if c.QueryParams().Has("multiple") {
		var req []service.ProductInput
		if err := c.Bind(&req); err != nil {
			l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		products, err := h.Svc.CreateProducts(ctx, req)
		if err != nil {
			return err
		}
		l.Info("create_products_success", "count", len(products))
		return c.JSON(http.StatusCreated, products)
	}

	var req service.ProductInput
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	product, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return err
	}

	l.Info("create_product_success", "product_id", product.ID)
	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHTTP) List(c echo.Context) error {
	page, err := util.ParseOptionalInt(c.QueryParam("page"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "page is not a number")
	}

	res, err := h.Svc.ListProducts(c.Request().Context(), service.ProductQuery{
		Category: c.QueryParam("category"),
		Page:     page,
		Sort:     c.QueryParam("sort"),
		Order:    c.QueryParam("order"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ProductHTTP) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}

	products, err := h.Svc.SearchProducts(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, products)
}

func (h *ProductHTTP) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	product, err := h.Svc.GetProduct(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product_update")

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req service.ProductPatch
	if err := c.Bind(&req); err != nil {
		l.Warn("product_update_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	product, err := h.Svc.UpdateProduct(ctx, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHTTP) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteProduct(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHTTP) DeleteAll(c echo.Context) error {
	if err := h.Svc.DeleteAllProducts(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
