package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"facility-asset-backend/config"
	"facility-asset-backend/internal/mw"
	"facility-asset-backend/internal/procurement"
	"facility-asset-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, svc *procurement.Service, webpushOptions *webpush.Options, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	db := s.DB()
	handler := NewHandler(s, svc, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/requests", handler.ListRequests)
		api.POST("/requests", caching, handler.CreateRequest)
		api.GET("/requests/stats", caching, handler.GetStatistics)
		api.GET("/requests/:id", handler.GetRequest)
		api.PATCH("/requests/:id", caching, handler.UpdateRequest)
		api.DELETE("/requests/:id", caching, handler.DeleteRequest)

		api.GET("/devices", caching, handler.ListDevices)
		api.GET("/devices/:id", handler.GetDevice)

		api.GET("/rooms", caching, handler.ListRooms)
		api.POST("/rooms", caching, handler.CreateRoom)

		api.GET("/budgets/:year", caching, GetBudgetReport(db))
		api.GET("/budgets/:year/:department", GetBudget(db))
		api.PUT("/budgets/:year/:department", caching, UpsertBudget(db))

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
