package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const maxHistoryLimit = 1000

// listHistory returns recent routing history entries
// GET /api/v1/history?scheme=<name>&limit=100
func (r *Router) listHistory(c *gin.Context) {
	ctx := c.Request.Context()

	schemeName := c.Query("scheme")

	limit := 0
	if limitParam := c.Query("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed < 1 || parsed > maxHistoryLimit {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "limit must be between 1 and 1000",
			})
			return
		}
		limit = parsed
	}

	entries, err := r.repo.ListRouteHistory(ctx, schemeName, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list routing history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history": entries,
		"count":   len(entries),
	})
}
