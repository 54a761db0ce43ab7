package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/newsdesk/ingest-router/internal/models"
)

// listProviders returns all ingest providers
// GET /api/v1/providers?open_only=true
func (r *Router) listProviders(c *gin.Context) {
	ctx := c.Request.Context()

	const queryTrue = "true"
	openOnly := c.Query("open_only") == queryTrue

	providers, err := r.repo.ListProviders(ctx, openOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list providers",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"providers": providers,
		"count":     len(providers),
	})
}

// createProvider creates a new ingest provider
// POST /api/v1/providers
func (r *Router) createProvider(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.ProviderCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return
	}

	provider, err := r.repo.CreateProvider(ctx, &req)
	if err != nil {
		if err.Error() == "routing scheme not found" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid routing_scheme",
			})
			return
		}
		handleRepositoryError(c, err, "Provider", "create")
		return
	}

	c.JSON(http.StatusCreated, provider)
}

// getProvider retrieves an ingest provider by ID
// GET /api/v1/providers/:id
func (r *Router) getProvider(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseUUID(c, "id", "provider")
	if !ok {
		return
	}

	provider, err := r.repo.GetProviderByID(ctx, id)
	if err != nil {
		handleRepositoryError(c, err, "Provider", "get")
		return
	}

	c.JSON(http.StatusOK, provider)
}

// updateProvider updates an ingest provider
// PUT /api/v1/providers/:id
func (r *Router) updateProvider(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseUUID(c, "id", "provider")
	if !ok {
		return
	}

	var req models.ProviderUpdateRequest
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

	provider, err := r.repo.UpdateProvider(ctx, id, &req)
	if err != nil {
		handleRepositoryError(c, err, "Provider", "update")
		return
	}

	c.JSON(http.StatusOK, provider)
}

// deleteProvider deletes an ingest provider
// DELETE /api/v1/providers/:id
func (r *Router) deleteProvider(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseUUID(c, "id", "provider")
	if !ok {
		return
	}

	if err := r.repo.DeleteProvider(ctx, id); err != nil {
		handleRepositoryError(c, err, "Provider", "delete")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Provider deleted successfully",
	})
}
