package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pcshop/internal/service"
	"github.com/Skotchmaster/pcshop/pkg/logging"
)

type CategoryHTTP struct {
	Svc *service.CatalogService
}

type categoryRequest struct {
	Name string `json:"name"`
}

// Create stores one category, or a whole batch when ?multiple is present.
func (h *CategoryHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category_create")

	if c.QueryParams().Has("multiple") {
		var req []categoryRequest
		if err := c.Bind(&req); err != nil {
			l.Warn("category_create_error", "status", 400, "reason", "invalid body", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		names := make([]string, 0, len(req))
		for _, r := range req {
			names = append(names, r.Name)
		}
		cats, err := h.Svc.CreateCategories(ctx, names)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, cats)
	}

	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("category_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	cat, err := h.Svc.CreateCategory(ctx, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHTTP) List(c echo.Context) error {
	cats, err := h.Svc.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *CategoryHTTP) Get(c echo.Context) error {
	cat, err := h.Svc.GetCategory(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CategoryHTTP) Rename(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cat, err := h.Svc.RenameCategory(c.Request().Context(), c.Param("name"), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CategoryHTTP) Delete(c echo.Context) error {
	if err := h.Svc.DeleteCategory(c.Request().Context(), c.Param("name")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CategoryHTTP) DeleteAll(c echo.Context) error {
	if err := h.Svc.DeleteAllCategories(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
