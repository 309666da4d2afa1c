package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thehallofegress/class-schedules/config"
	"github.com/thehallofegress/class-schedules/internal/api/handler"
	"github.com/thehallofegress/class-schedules/internal/api/middleware"
	"github.com/thehallofegress/class-schedules/internal/api/ws"
	"github.com/thehallofegress/class-schedules/pkg/jwt"
	"github.com/thehallofegress/class-schedules/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, hub *ws.Hub, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20)) // 1MB

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 只读接口（无需认证）
		v1.GET("/schedule", h.Schedule.GetSchedule)
		v1.GET("/contact", h.Schedule.GetContact)
		v1.GET("/pricing", h.Schedule.GetPricing)
		v1.GET("/locations", h.Schedule.GetLocations)
		v1.GET("/announcements", h.Announcement.List)
		v1.GET("/sync/status", h.Sync.Status)
		v1.GET("/ws", hub.Serve)

		// 导出（无需认证，公开数据）
		export := v1.Group("/export")
		{
			export.GET("/schedule.xlsx", h.Export.ExportXLSX)
			export.GET("/schedule.ics", h.Export.ExportICS)
		}

		// 编辑口令换 Token：限流防爆破
		v1.POST("/auth/edit-mode",
			middleware.RateLimit(rdb, 10, time.Minute),
			h.Auth.EnterEditMode,
		)

		// 需要编辑 Token 的路由
		editing := v1.Group("")
		editing.Use(middleware.EditAuth(jwtMgr, rdb))
		{
			editing.DELETE("/auth/edit-mode", h.Auth.ExitEditMode)

			editing.POST("/sync/refresh", h.Sync.Refresh)

			sessions := editing.Group("/edit-sessions")
			{
				sessions.POST("", h.Edit.OpenSession)
				sessions.GET("/:id", h.Edit.GetSession)
				sessions.DELETE("/:id", h.Edit.DiscardSession)
				sessions.POST("/:id/classes", h.Edit.AddClass)
				sessions.PUT("/:id/classes", h.Edit.UpdateClass)
				sessions.DELETE("/:id/classes", h.Edit.RemoveClass)
				sessions.PUT("/:id/payload", h.Edit.ReplacePayload)
				sessions.POST("/:id/locations", h.Edit.AppendLocation)
				sessions.DELETE("/:id/locations/:index", h.Edit.RemoveLocation)
				sessions.POST("/:id/commit", h.Edit.CommitSession)
			}

			announcements := editing.Group("/announcements")
			{
				announcements.POST("", h.Announcement.Create)
				announcements.PUT("/:id", h.Announcement.Update)
				announcements.DELETE("/:id", h.Announcement.Delete)
			}

			// 旧版静态 JSON 写盘（迁移期兼容）
			editing.POST("/legacy/save-json", h.Legacy.SaveJSON)
		}
	}

	return r
}
