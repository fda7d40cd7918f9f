package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"facility-asset-backend/internal/procurement"
	"facility-asset-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	svc     *procurement.Service
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, svc *procurement.Service, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		svc:     svc,
		webpush: webpushOptions,
	}
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var (
		validationErr   *procurement.ValidationError
		transitionErr   *procurement.TransitionError
		provisioningErr *procurement.ProvisioningError
	)
	switch {
	case errors.As(err, &validationErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &transitionErr):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": transitionErr.Error()})
	case errors.As(err, &provisioningErr):
		// The status change was rolled back with the failed provisioning;
		// the caller may retry the same transition.
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error":     provisioningErr.Error(),
			"retryable": true,
		})
	case errors.Is(err, procurement.ErrNotFound), errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
