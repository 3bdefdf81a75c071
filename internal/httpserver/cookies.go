package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/pcshop/internal/middleware/auth"
)

// Cookie lifetimes in seconds. The access cookie outlives the refresh cookie;
// the frontend depends on these exact values.
const (
	AccessCookieMaxAge  = 604800
	RefreshCookieMaxAge = 86400
)

func CreateCookie(name, value string) *http.Cookie {
	maxAge := RefreshCookieMaxAge
	if name == auth.AccessCookie {
		maxAge = AccessCookieMaxAge
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

func DeleteCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}
