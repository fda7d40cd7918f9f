package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"facility-asset-backend/internal/model"
)

type putSubscriptionRequest struct {
	Endpoint    string   `json:"endpoint" binding:"required"`
	P256DH      string   `json:"p256dh" binding:"required"`
	Auth        string   `json:"auth" binding:"required"`
	Departments []string `json:"departments"`
}

// PutSubscription handles the creation or replacement of a subscription.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	subscription := model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}

	if err := h.store.ReplaceSubscription(c.Request.Context(), &subscription, req.Departments); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.store.DeleteSubscription(c.Request.Context(), req.Endpoint); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// rawQueryParam digs a parameter out of the raw query string without URL
// decoding; push endpoints are URLs and must round-trip byte for byte.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// GetVAPIDPublicKey hands the browser the key it needs to create a push
// subscription.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush != nil && h.webpush.VAPIDPublicKey != "" {
		c.JSON(http.StatusOK, gin.H{"public_key": h.webpush.VAPIDPublicKey})
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "push notifications are not configured"})
}

// GetSubscription handles the retrieval of a subscription.
func (h *Handler) GetSubscription(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}

	subscription, err := h.store.GetSubscription(c.Request.Context(), raw)
	if err != nil {
		respondError(c, err)
		return
	}

	departments := make([]string, len(subscription.Departments))
	for i, d := range subscription.Departments {
		departments[i] = d.Name
	}

	c.JSON(http.StatusOK, gin.H{"departments": departments})
}
