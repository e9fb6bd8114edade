package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"student-api-server-go/config"
	"student-api-server-go/middleware"
)

// NewRouter wires routes and middleware. System endpoints are not rate
// limited.
func NewRouter(api *APIHandler, health *HealthHandler, limits config.RateLimitConfig) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Metrics(),
		middleware.Logger(),
		middleware.PrivateNetworkAccess(),
		middleware.CORS(),
	)

	router.GET("/healthz", health.Health)
	router.GET("/readyz", health.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := router.Group("/api", middleware.RateLimit(limits.Limit, limits.Burst))
	{
		apiGroup.GET("", api.GetStudents)
		apiGroup.GET("/ping", PingHandler)
	}

	return router
}
