// Package pagination parses and clamps the page/limit query parameters
// shared by every listing endpoint.
package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds validated pagination parameters
type Params struct {
	Page  int
	Limit int
}

// Parse reads page and limit from the query string. Out-of-range values fall
// back to the defaults; limit is capped at MaxLimit.
func Parse(c *gin.Context) Params {
	page, err := strconv.Atoi(c.DefaultQuery("page", ""))
	if err != nil || page < 1 {
		page = DefaultPage
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", ""))
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

// Offset converts the page/limit pair into a row offset
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta returns the envelope fields every paginated listing carries. Callers
// add their own data key next to them.
func (p Params) Meta(total int64) map[string]interface{} {
	return map[string]interface{}{
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}
}
