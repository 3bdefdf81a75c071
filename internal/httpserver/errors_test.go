package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/pcshop/internal/domain"
)

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"invalid input", fmt.Errorf("%w: title: cannot be blank.", domain.ErrInvalidInput), http.StatusBadRequest, `{"message":"title: cannot be blank."}`},
		{"illegal state", fmt.Errorf("%w: Cart can't be deleted", domain.ErrIllegalState), http.StatusBadRequest, `{"message":"Cart can't be deleted"}`},
		{"no authentication", fmt.Errorf("%w: Bad credentials", domain.ErrNoAuthentication), http.StatusUnauthorized, `{"message":"Bad credentials"}`},
		{"expired", domain.ErrTokenExpired, http.StatusForbidden, `{"message":"token expired"}`},
		{"forbidden", fmt.Errorf("%w: you don't have enough rights", domain.ErrForbidden), http.StatusForbidden, `{"message":"you don't have enough rights"}`},
		{"not found", fmt.Errorf("product 7: %w", domain.ErrNotFound), http.StatusNotFound, `{"message":"product 7: not found"}`},
		{"conflict", fmt.Errorf("image \"a\" already exists: %w", domain.ErrConflict), http.StatusConflict, `{"message":"image \"a\" already exists: conflict"}`},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, `{"message":"internal server error"}`},
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "invalid body"), http.StatusBadRequest, `{"message":"invalid body"}`},
		{"route not found", echo.ErrNotFound, http.StatusNotFound, `{"message":"Not Found"}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			ErrorHandler(tt.err, c)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
