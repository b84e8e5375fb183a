package respond

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Paging reads limit/offset query parameters, clamping limit to [1, max].
func Paging(c *gin.Context, def, max int) (limit, offset int) {
	limit = def
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
