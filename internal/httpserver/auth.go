package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pcshop/internal/middleware/auth"
	"github.com/Skotchmaster/pcshop/internal/models"
	"github.com/Skotchmaster/pcshop/internal/service"
	"github.com/Skotchmaster/pcshop/pkg/logging"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req service.Profile
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if _, err := h.Svc.Register(ctx, req); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Registration success"})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req service.Credentials
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req)
	if err != nil {
		return err
	}

	c.SetCookie(CreateCookie(auth.AccessCookie, res.AccessToken))
	c.SetCookie(CreateCookie(auth.RefreshCookie, res.RefreshToken))
	l.Info("login_successful", "user_id", res.User.ID)

	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Login success",
		"is_admin": res.User.Role == models.RoleAdmin,
	})
}

func (h *AuthHTTP) RefreshToken(c echo.Context) error {
	ctx := c.Request().Context()

	access, err := h.Svc.RefreshToken(ctx,
		auth.TokenFromCookie(c, auth.AccessCookie),
		auth.TokenFromCookie(c, auth.RefreshCookie),
	)
	if err != nil {
		return err
	}

	c.SetCookie(CreateCookie(auth.AccessCookie, access))
	return c.JSON(http.StatusOK, echo.Map{"message": "Token refresh success"})
}

func (h *AuthHTTP) TerminateOther(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.Svc.TerminateOtherSessions(ctx, auth.TokenFromCookie(c, auth.AccessCookie)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Other session termination success"})
}

func (h *AuthHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_change_password")

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("change_password_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	access := auth.TokenFromCookie(c, auth.AccessCookie)
	if err := h.Svc.ChangePassword(ctx, access, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password change success"})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	if err := h.Svc.Logout(ctx, auth.TokenFromCookie(c, auth.AccessCookie)); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke session", "error", err)
		return err
	}

	c.SetCookie(DeleteCookie(auth.AccessCookie))
	c.SetCookie(DeleteCookie(auth.RefreshCookie))
	l.Info("successful_logout")
	return c.NoContent(http.StatusNoContent)
}
