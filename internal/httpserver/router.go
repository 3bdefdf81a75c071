package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/pcshop/internal/middleware/auth"
	"github.com/Skotchmaster/pcshop/pkg/metrics"
)

// Request body caps. Image routes get the larger one.
const (
	apiBodyLimit    = "1M"
	uploadBodyLimit = "64M"
)

type Deps struct {
	AuthHandler     *AuthHTTP
	CartHandler     *CartHTTP
	OrderHandler    *OrderHTTP
	ProductHandler  *ProductHTTP
	CategoryHandler *CategoryHTTP
	ImageHandler    *ImageHTTP
	UserHandler     *UserHTTP

	Authenticator auth.Authenticator
	Metrics       *metrics.Metrics
	Ready         func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": err.Error()})
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	login := auth.RequireLogin(d.Authenticator)
	admin := []echo.MiddlewareFunc{login, auth.AdminOnly}

	api := e.Group("/api", middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		Skipper: func(c echo.Context) bool { return strings.HasPrefix(c.Path(), "/api/images") },
		Limit:   apiBodyLimit,
	}))

	a := api.Group("/auth")
	a.POST("/register", d.AuthHandler.Register)
	a.POST("/login", d.AuthHandler.Login)
	a.POST("/refresh-token", d.AuthHandler.RefreshToken)
	a.POST("/terminate-other", d.AuthHandler.TerminateOther)
	a.POST("/change-password", d.AuthHandler.ChangePassword)
	a.POST("/logout", d.AuthHandler.Logout)

	cart := api.Group("/cart", login)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("/checkout", d.CartHandler.Checkout)
	cart.POST("/items", d.CartHandler.AddItem)
	cart.PATCH("/items/:itemId", d.CartHandler.UpdateQuantity)
	cart.DELETE("/items/:itemId", d.CartHandler.DeleteItem)
	cart.DELETE("/items", d.CartHandler.Clear)

	orders := api.Group("/orders")
	orders.GET("/current-user", d.OrderHandler.CurrentUser, login)
	orders.GET("", d.OrderHandler.List, admin...)
	orders.GET("/:id", d.OrderHandler.Get, admin...)
	orders.DELETE("/:id", d.OrderHandler.Delete, admin...)

	products := api.Group("/products")
	products.GET("", d.ProductHandler.List)
	products.GET("/search", d.ProductHandler.Search)
	products.GET("/:id", d.ProductHandler.Get)
	products.POST("", d.ProductHandler.Create, admin...)
	products.PATCH("/:id", d.ProductHandler.Update, admin...)
	products.DELETE("/:id", d.ProductHandler.Delete, admin...)
	products.DELETE("", d.ProductHandler.DeleteAll, admin...)

	categories := api.Group("/categories")
	categories.GET("", d.CategoryHandler.List)
	categories.GET("/:name", d.CategoryHandler.Get)
	categories.POST("", d.CategoryHandler.Create, admin...)
	categories.PATCH("/:name", d.CategoryHandler.Rename, admin...)
	categories.DELETE("/:name", d.CategoryHandler.Delete, admin...)
	categories.DELETE("", d.CategoryHandler.DeleteAll, admin...)

	images := api.Group("/images", middleware.BodyLimit(uploadBodyLimit))
	images.GET("", d.ImageHandler.List)
	images.GET("/:name", d.ImageHandler.Get)
	images.POST("", d.ImageHandler.Upload, admin...)
	images.POST("/all", d.ImageHandler.UploadMany, admin...)
	images.PATCH("/:name", d.ImageHandler.Replace, admin...)
	images.DELETE("/:name", d.ImageHandler.Delete, admin...)
	images.DELETE("", d.ImageHandler.DeleteAll, admin...)

	users := api.Group("/users")
	users.GET("/current", d.UserHandler.Current, login)
	users.POST("", d.UserHandler.Create, admin...)
	users.GET("", d.UserHandler.List, admin...)
	users.GET("/:id", d.UserHandler.Get, admin...)
	users.PATCH("/:id", d.UserHandler.Update, admin...)
	users.DELETE("/:id", d.UserHandler.Delete, admin...)
}
