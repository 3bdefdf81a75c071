package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pcshop/internal/domain"
)

var statusBySentinel = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidInput, http.StatusBadRequest},
	{domain.ErrIllegalState, http.StatusBadRequest},
	{domain.ErrNoAuthentication, http.StatusUnauthorized},
	{domain.ErrTokenExpired, http.StatusForbidden},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrConflict, http.StatusConflict},
}

// StatusOf maps a domain error to its HTTP status; unknown errors are 500.
func StatusOf(err error) int {
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// ErrorHandler writes every handler error as {"message": ...}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := he.Message
		if s, ok := msg.(string); ok {
			msg = echo.Map{"message": s}
		}
		writeError(c, he.Code, msg)
		return
	}

	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		writeError(c, status, echo.Map{"message": "internal server error"})
		return
	}
	writeError(c, status, echo.Map{"message": publicMessage(err)})
}

func writeError(c echo.Context, status int, body any) {
	var err error
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		c.Logger().Error(err)
	}
}

// publicMessage drops the sentinel prefix from "<sentinel>: <detail>".
func publicMessage(err error) string {
	msg := err.Error()
	for _, s := range statusBySentinel {
		if prefix := s.err.Error() + ": "; strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}
