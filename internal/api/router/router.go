package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Bzrkr/raspisanie/config"
	"github.com/Bzrkr/raspisanie/internal/api/handler"
	"github.com/Bzrkr/raspisanie/internal/api/middleware"
)

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时不限流
func Setup(cfg *config.Config, h *handler.Handler, limiter middleware.RateLimitStore, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger))
	{
		v1.GET("/rooms", h.Schedule.ListRooms)
		v1.GET("/week", h.Schedule.GetWeek)

		schedules := v1.Group("/schedules")
		{
			schedules.GET("", h.Schedule.GetSchedules)
			schedules.GET("/room", h.Schedule.GetRoomSchedule)
			schedules.GET("/text", h.Schedule.ExportText)
			schedules.GET("/share", h.Schedule.Share)
		}

		v1.POST("/session/reload", h.Schedule.ReloadSession)
	}

	return r
}
