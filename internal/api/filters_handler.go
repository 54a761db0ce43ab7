package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/newsdesk/ingest-router/internal/models"
)

// listFilters returns all content filters
// GET /api/v1/filters
func (r *Router) listFilters(c *gin.Context) {
	ctx := c.Request.Context()

	filters, err := r.repo.ListFilters(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list filters",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filters": filters,
		"count":   len(filters),
	})
}

// createFilter creates a new content filter
// POST /api/v1/filters
func (r *Router) createFilter(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.FilterCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Filter name is required",
		})
		return
	}

	filter := &models.ContentFilter{Name: req.Name, Statements: req.Statements}
	if err := filter.Validate(); err != nil {
		handleValidationError(c, err)
		return
	}

	created, err := r.repo.CreateFilter(ctx, filter)
	if err != nil {
		handleRepositoryError(c, err, "Filter", "create")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// getFilter retrieves a content filter by ID
// GET /api/v1/filters/:id
func (r *Router) getFilter(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseUUID(c, "id", "filter")
	if !ok {
		return
	}

	filter, err := r.repo.GetFilterByID(ctx, id)
	if err != nil {
		handleRepositoryError(c, err, "Filter", "get")
		return
	}

	c.JSON(http.StatusOK, filter)
}

// updateFilter updates a content filter
// PUT /api/v1/filters/:id
func (r *Router) updateFilter(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseUUID(c, "id", "filter")
	if !ok {
		return
	}

	var req models.FilterUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return
	}
	if err := req.Validate(); err != nil {
		handleValidationError(c, err)
		return
	}

	if req.Statements != nil {
		probe := &models.ContentFilter{Name: "probe", Statements: req.Statements}
		if err := probe.Validate(); err != nil {
			handleValidationError(c, err)
			return
		}
	}

	filter, err := r.repo.UpdateFilter(ctx, id, &req)
	if err != nil {
		handleRepositoryError(c, err, "Filter", "update")
		return
	}

	c.JSON(http.StatusOK, filter)
}

// deleteFilter deletes a content filter
// DELETE /api/v1/filters/:id
func (r *Router) deleteFilter(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseUUID(c, "id", "filter")
	if !ok {
		return
	}

	if err := r.repo.DeleteFilter(ctx, id); err != nil {
		handleRepositoryError(c, err, "Filter", "delete")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Filter deleted successfully",
	})
}
