package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hzwen/portfolio-ai/internal/service"
)

// SystemHandler 系统处理器
type SystemHandler struct {
	svc *service.Services
	db  *gorm.DB
}

// NewSystemHandler 创建系统处理器
func NewSystemHandler(svc *service.Services, db *gorm.DB) *SystemHandler {
	return &SystemHandler{svc: svc, db: db}
}

// Health 健康检查
// GET /api/health
func (h *SystemHandler) Health(c *gin.Context) {
	status := "ok"
	code := http.StatusOK

	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":   status,
		"version":  h.svc.Config.App.Version,
		"provider": h.svc.Config.AI.Provider,
	})
}
