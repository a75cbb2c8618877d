package router

import (
	"github.com/gin-gonic/gin"

	"github.com/hzwen/portfolio-ai/internal/handler"
	"github.com/hzwen/portfolio-ai/internal/middleware"
	"github.com/hzwen/portfolio-ai/internal/service/auth"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers, authSvc *auth.Service) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.VisitorID())

	api := r.Group("/api")
	{
		// 健康检查
		api.GET("/health", h.System.Health)

		// 流式聊天（Assistants 路由）
		openaiChat := api.Group("/chat/openai")
		{
			openaiChat.POST("", h.Chat.Stream)
			openaiChat.GET("", h.Chat.History)
			openaiChat.DELETE("", h.Chat.DeleteSession)
		}

		// 同步补全聊天
		api.POST("/chat", h.Completion.Send)
		api.GET("/chat", h.Completion.History)
		api.DELETE("/chat", h.Completion.DeleteSession)

		// 站点内容
		api.GET("/projects", h.Portfolio.ListProjects)
		api.GET("/projects/:id", h.Portfolio.GetProject)
		api.GET("/resume", h.Portfolio.GetResume)
		api.POST("/contact", h.Portfolio.SubmitContact)

		// 埋点
		api.POST("/telemetry", h.Telemetry.Track)

		// 管理端
		api.POST("/admin/login", h.Auth.Login)
		admin := api.Group("/admin", middleware.RequireAdmin(authSvc))
		{
			admin.GET("/me", h.Auth.Me)
			admin.POST("/projects", h.Portfolio.CreateProject)
			admin.PUT("/projects/:id", h.Portfolio.UpdateProject)
			admin.DELETE("/projects/:id", h.Portfolio.DeleteProject)
			admin.POST("/resume/reload", h.Portfolio.ReloadResume)
			admin.GET("/contact", h.Portfolio.ListContactMessages)
			admin.GET("/telemetry", h.Telemetry.List)
		}
	}

	return r
}
