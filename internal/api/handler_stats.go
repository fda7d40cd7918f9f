package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"facility-asset-backend/internal/query"
)

// GetStatistics handles GET /api/requests/stats. Filters narrow the set
// the aggregates are computed over.
func (h *Handler) GetStatistics(c *gin.Context) {
	var filter query.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requests, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, query.Aggregate(query.Apply(requests, filter)))
}
