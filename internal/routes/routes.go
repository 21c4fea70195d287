package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ngo_connect_backend/internal/handlers"
	"ngo_connect_backend/internal/logger"
)

// RegisterRoutes mounts the API under /api/v1 plus the operational
// endpoints. metricsHandler may be nil.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	metricsHandler http.Handler,
) {
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metricsHandler != nil {
		ginRouter.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := ginRouter.Group("/api/v1")
	{
		appHandlers.PostHandler.RegisterRoutes(api)
		appHandlers.NGOHandler.RegisterRoutes(api)
		appHandlers.NotificationHandler.RegisterRoutes(api)
		appHandlers.PreferenceHandler.RegisterRoutes(api)
	}
	logger.Info("HTTP routes registered", "routes", len(ginRouter.Routes()))
}
