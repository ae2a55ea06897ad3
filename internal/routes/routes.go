package routes

import (
	"net/http"

	"jobportal_backend/docs"
	"jobportal_backend/internal/handlers"
	"jobportal_backend/internal/logger"
	"jobportal_backend/internal/metrics"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// RegisterRoutes регистрирует HTTP API и служебные маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	guards handlers.Guards,
	db *gorm.DB,
) {
	api := ginRouter.Group("/api")
	{
		appHandlers.PlanHandler.RegisterRoutes(api)
		appHandlers.PaymentHandler.RegisterRoutes(api, guards)
		appHandlers.SubscriptionHandler.RegisterRoutes(api, guards)
	}

	ginRouter.GET("/healthz", healthHandler(db))
	ginRouter.GET("/metrics", metrics.Handler())

	docs.SwaggerInfo.BasePath = "/api"
	ginRouter.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	logger.Info("HTTP routes registered", "routes", len(ginRouter.Routes()))
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			logger.CtxWithError(c.Request.Context(), "health check failed", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
