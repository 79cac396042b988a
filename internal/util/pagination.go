package util

import "strconv"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// Calculate turns a zero-based page and a size into offset and limit.
func Calculate(page, size int) (offset, limit int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return page * size, size
}

func TotalPages(total int64, size int) int {
	if size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
