package domain

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")     // 400
	ErrNoAuthentication = errors.New("no authentication") // 401
	ErrTokenExpired     = errors.New("token expired")     // 403
	ErrForbidden        = errors.New("forbidden")         // 403
	ErrNotFound         = errors.New("not found")         // 404
	ErrConflict         = errors.New("conflict")          // 409
	ErrIllegalState     = errors.New("illegal state")     // 400
)
