package util

import (
	"errors"
	"math"
	"strconv"
)

var ErrPageOutOfRange = errors.New("page out of range")

// Calculate turns a zero-based page into an offset/limit pair. Negative
// pages clamp to zero; pages whose offset would overflow int are rejected.
func Calculate(page, size int) (offset, limit int, err error) {
	if page < 0 {
		page = 0
	}
	if size > 0 && page > math.MaxInt/size {
		return 0, 0, ErrPageOutOfRange
	}
	return page * size, size, nil
}

func TotalPages(total int64, size int) int {
	if size <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}

// ParseOptionalInt returns nil for an empty string.
func ParseOptionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func ParseUint(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
