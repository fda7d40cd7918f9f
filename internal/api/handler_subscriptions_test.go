package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupSubscriptionRouter() *gin.Engine {
	r := gin.Default()
	handler := NewHandler(nil, nil, nil)
	r.PUT("/api/subscriptions", handler.PutSubscription)
	r.DELETE("/api/subscriptions", handler.DeleteSubscription)
	r.GET("/api/vapid_public_key", handler.GetVAPIDPublicKey)
	return r
}

func TestPutSubscriptionRejectsEmptyBody(t *testing.T) {
	router := setupSubscriptionRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/subscriptions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())
}

func TestDeleteSubscriptionRejectsEmptyBody(t *testing.T) {
	router := setupSubscriptionRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/subscriptions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())
}

func TestVAPIDPublicKeyUnconfigured(t *testing.T) {
	router := setupSubscriptionRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/vapid_public_key", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
