package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/newsdesk/ingest-router/internal/models"
)

// listSchemes returns all routing schemes
// GET /api/v1/schemes
func (r *Router) listSchemes(c *gin.Context) {
	ctx := c.Request.Context()

	schemes, err := r.repo.ListSchemes(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list schemes",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"schemes": schemes,
		"count":   len(schemes),
	})
}

// createScheme creates a new routing scheme
// POST /api/v1/schemes
func (r *Router) createScheme(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.SchemeCreateRequest
	if !bindStrictJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Scheme name is required",
		})
		return
	}

	scheme := &models.Scheme{Name: req.Name, Rules: req.Rules}
	scheme.Normalize()
	if err := scheme.Validate(); err != nil {
		handleValidationError(c, err)
		return
	}

	created, err := r.repo.CreateScheme(ctx, scheme)
	if err != nil {
		handleRepositoryError(c, err, "Scheme", "create")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// getScheme retrieves a routing scheme by ID
// GET /api/v1/schemes/:id
func (r *Router) getScheme(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseUUID(c, "id", "scheme")
	if !ok {
		return
	}

	scheme, err := r.repo.GetSchemeByID(ctx, id)
	if err != nil {
		handleRepositoryError(c, err, "Scheme", "get")
		return
	}

	c.JSON(http.StatusOK, scheme)
}

// updateScheme updates a routing scheme
// PUT /api/v1/schemes/:id
func (r *Router) updateScheme(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseUUID(c, "id", "scheme")
	if !ok {
		return
	}

	var req models.SchemeUpdateRequest
	if !bindStrictJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		handleValidationError(c, err)
		return
	}

	// Replacement rules go through the same authoring validation as creates.
	if req.Rules != nil {
		probe := &models.Scheme{Name: "probe", Rules: req.Rules}
		probe.Normalize()
		if err := probe.Validate(); err != nil {
			handleValidationError(c, err)
			return
		}
		req.Rules = probe.Rules
	}

	scheme, err := r.repo.UpdateScheme(ctx, id, req.Name, req.Rules)
	if err != nil {
		handleRepositoryError(c, err, "Scheme", "update")
		return
	}

	c.JSON(http.StatusOK, scheme)
}

// deleteScheme deletes a routing scheme unless a provider references it
// DELETE /api/v1/schemes/:id
func (r *Router) deleteScheme(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseUUID(c, "id", "scheme")
	if !ok {
		return
	}

	if err := r.repo.DeleteScheme(ctx, id); err != nil {
		handleRepositoryError(c, err, "Scheme", "delete")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Scheme deleted successfully",
	})
}
