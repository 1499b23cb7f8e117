package util

import (
	"math"
	"strconv"
)

const MaxPageSize = 100

// Page normalises page and limit query values and returns the row offset.
func Page(pageStr, limitStr string, defaultLimit int) (page, limit, offset int) {
	page, _ = strconv.Atoi(pageStr)
	limit, _ = strconv.Atoi(limitStr)
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit, (page - 1) * limit
}

// TotalPages is never below 1 so an empty listing still reports one page.
func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 1
	}
	n := int(math.Ceil(float64(total) / float64(limit)))
	if n < 1 {
		n = 1
	}
	return n
}
