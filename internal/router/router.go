package router

import (
	"net/http"
	"time"

	"gcsmedia/backend/internal/auth"
	"gcsmedia/backend/internal/database"
	"gcsmedia/backend/internal/handlers"
	phxmiddleware "gcsmedia/backend/internal/middleware"
	phxlog "gcsmedia/backend/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter builds the gin engine with every route of the service.
func SetupRouter(log *zap.Logger, h *handlers.Handler) *gin.Engine {
	router := gin.New()

	router.Use(phxmiddleware.Metrics())
	router.Use(phxmiddleware.GinZap(log, time.RFC3339, true))
	router.Use(phxmiddleware.GinRecovery(log, true))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", healthCheckHandler)

	setupAuthRoutes(router)
	setupAdminRoutes(router, h)
	setupV1Routes(router, h)

	return router
}

func healthCheckHandler(c *gin.Context) {
	db := database.GetDB()
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "database not initialized"})
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		phxlog.L.Error("Failed to get DB instance for health check", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "database instance error"})
		return
	}
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		phxlog.L.Error("Database ping failed during health check", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "database ping failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "connected",
	})
}

func setupAuthRoutes(r *gin.Engine) {
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/login", handlers.LoginHandler)
	}
}

func setupAdminRoutes(r *gin.Engine, h *handlers.Handler) {
	wpAdmin := r.Group("/wp-admin")
	wpAdmin.Use(auth.OptionalAuthMiddleware())
	{
		wpAdmin.GET("/options-general.php", h.OptionsPageHandler)
		wpAdmin.POST("/options.php", auth.RequireCapability(auth.CapManageOptions), h.SaveOptionsHandler)
	}
}

func setupV1Routes(r *gin.Engine, h *handlers.Handler) {
	apiV1 := r.Group("/api/v1")
	apiV1.Use(auth.AuthMiddleware())
	{
		pluginRoutes := apiV1.Group("/plugins")
		{
			pluginRoutes.GET("", h.ListPluginsHandler)
			pluginRoutes.POST("/:slug/activate", auth.RequireCapability(auth.CapActivatePlugins), h.ActivatePluginHandler)
		}

		apiV1.GET("/upload-dir", h.UploadDirHandler)

		mediaRoutes := apiV1.Group("/media")
		{
			mediaRoutes.GET("", h.ListMediaHandler)
			mediaRoutes.POST("", auth.RequireCapability(auth.CapUploadFiles), h.UploadMediaHandler)
			mediaRoutes.GET("/:id", h.GetMediaHandler)
			mediaRoutes.DELETE("/:id", auth.RequireCapability(auth.CapUploadFiles), h.DeleteMediaHandler)
			mediaRoutes.GET("/:id/signed-url", h.GetSignedURLHandler)
		}
	}
}
