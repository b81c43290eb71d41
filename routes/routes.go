package routes

import (
	"net/http"
	"time"

	"taskdeck/handlers"
	"taskdeck/middleware"
	"taskdeck/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterNotificationRoutes registers the evaluation trigger, the in-app
// feed, and the settings surface.
func RegisterNotificationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/notifications")
	{
		// Internal sweep trigger; fronted by the deployment, not sessions.
		api.POST("/sweep", hb.RunSweepHandler)

		api.Use(middleware.JWTAuthUserMiddleware())
		api.POST("/run", hb.RunEvaluationHandler)
		api.GET("", hb.ListNotificationsHandler)
		api.PATCH("/:id/read", hb.MarkNotificationRead)
		api.PATCH("/:id/dismiss", hb.DismissNotificationHandler)
		api.GET("/preferences", hb.GetPreferencesHandler)
		api.PUT("/preferences", hb.UpdatePreferencesHandler)
	}
}

// RegisterPushRoutes registers the delivery endpoint registry.
func RegisterPushRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/push")
	{
		api.Use(middleware.JWTAuthUserMiddleware())
		api.POST("/subscriptions", hb.SubscribeHandler)
		api.DELETE("/subscriptions/:id", hb.UnsubscribeHandler)
	}
}

// RegisterTaskRoutes registers the snooze/complete mutation hooks.
func RegisterTaskRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/tasks")
	{
		api.Use(middleware.JWTAuthUserMiddleware())
		api.POST("/:id/snooze", hb.SnoozeTaskHandler)
		api.POST("/:id/complete", hb.CompleteTaskHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "services": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Timezone"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterNotificationRoutes(r, hb)
	RegisterPushRoutes(r, hb)
	RegisterTaskRoutes(r, hb)
	RegisterHealthRoute(r)
}
