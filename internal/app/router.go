// internal/app/router.go
package app

import (
	"time"

	alertHandler "studylink-service/internal/handlers/alert"
	authHandler "studylink-service/internal/handlers/auth"
	commHandler "studylink-service/internal/handlers/communication"
	configHandler "studylink-service/internal/handlers/config"
	notifyHandler "studylink-service/internal/handlers/notification"
	pushHandler "studylink-service/internal/handlers/push"
	schedulerHandler "studylink-service/internal/handlers/scheduler"
	templateHandler "studylink-service/internal/handlers/template"
	"studylink-service/internal/middleware"
	"studylink-service/internal/pkg/ratelimit"
	"studylink-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler      *authHandler.AuthHandler
	AlertHandler     *alertHandler.AlertHandler
	NotifHandler     *notifyHandler.NotificationHandler
	PushHandler      *pushHandler.PushHandler
	CommHandler      *commHandler.CommunicationHandler
	TemplateHandler  *templateHandler.TemplateHandler
	ConfigHandler    *configHandler.ConfigHandler
	SchedulerHandler *schedulerHandler.SchedulerHandler
	WSHandler        *websocket.Handler
	AuthMiddleware   *middleware.AuthMiddleware
	Limiter          *ratelimit.Limiter
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.Serve)

	// ==================== Auth ====================
	auth := api.Group("/auth")
	{
		auth.POST("/login",
			middleware.RateLimitMiddleware(h.Limiter, "login-ip", 20, 15*time.Minute, logger),
			h.AuthHandler.Login,
		)
		auth.GET("/me", h.AuthMiddleware.Auth(), h.AuthHandler.Me)
	}

	// ==================== Alerts ====================
	alerts := api.Group("/alerts")
	alerts.Use(h.AuthMiddleware.Auth())
	{
		alerts.GET("", h.AlertHandler.List)
		alerts.GET("/:id", h.AlertHandler.Get)
		alerts.PUT("/:id/resolve", h.AuthMiddleware.RequireAdmin(), h.AlertHandler.Resolve)
	}

	// ==================== Alert Configurations ====================
	configs := api.Group("/alert-configurations", h.AuthMiddleware.AdminOnly()...)
	{
		configs.GET("", h.ConfigHandler.List)
		configs.GET("/:type", h.ConfigHandler.Get)
		configs.PUT("/:type", h.ConfigHandler.Update)
	}

	// ==================== Notifications ====================
	notifications := api.Group("/notifications")
	notifications.Use(h.AuthMiddleware.Auth())
	{
		notifications.GET("", h.NotifHandler.List)
		notifications.GET("/count/unread", h.NotifHandler.UnreadCount)
		notifications.PUT("/:id/read", h.NotifHandler.MarkAsRead)
		notifications.PUT("/read-all", h.NotifHandler.MarkAllAsRead)
	}

	// ==================== Browser Push ====================
	push := api.Group("/push")
	push.Use(h.AuthMiddleware.Auth())
	{
		push.GET("/public-key", h.PushHandler.PublicKey)
		push.POST("/subscriptions", h.PushHandler.Subscribe)
		push.DELETE("/subscriptions", h.PushHandler.Unsubscribe)
	}

	// ==================== Communications ====================
	communications := api.Group("/communications")
	communications.Use(h.AuthMiddleware.Auth())
	{
		communications.POST("/send", h.AuthMiddleware.RequireAdmin(), h.CommHandler.Send)
		communications.GET("", h.CommHandler.Inbox)
		communications.PUT("/:id/read", h.CommHandler.MarkRead)
	}

	// ==================== Templates ====================
	templates := api.Group("/templates", h.AuthMiddleware.AdminOnly()...)
	{
		templates.POST("", h.TemplateHandler.Create)
		templates.GET("", h.TemplateHandler.List)
		templates.GET("/:id", h.TemplateHandler.Get)
		templates.PUT("/:id", h.TemplateHandler.Update)
		templates.DELETE("/:id", h.TemplateHandler.Delete)
		templates.POST("/:id/preview", h.TemplateHandler.Preview)
	}

	// ==================== Scheduler Trigger ====================
	// Authenticated by shared secret inside the handler, not by user JWT.
	api.POST("/scheduler/run-alert-checks",
		middleware.RateLimitMiddleware(h.Limiter, "scheduler", 12, time.Minute, logger),
		h.SchedulerHandler.RunAlertChecks,
	)
}
