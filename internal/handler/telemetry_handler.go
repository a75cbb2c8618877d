package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hzwen/portfolio-ai/internal/middleware"
	"github.com/hzwen/portfolio-ai/internal/service"
	"github.com/hzwen/portfolio-ai/internal/service/telemetry"
)

// TelemetryHandler 埋点处理器
type TelemetryHandler struct {
	svc *service.Services
}

// NewTelemetryHandler 创建埋点处理器
func NewTelemetryHandler(svc *service.Services) *TelemetryHandler {
	return &TelemetryHandler{svc: svc}
}

// Track 接收前端事件上报
func (h *TelemetryHandler) Track(c *gin.Context) {
	var req telemetry.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "event is required")
		return
	}

	// 请求体未带用户标识时回退到 Header
	if req.UserID == "" {
		if id, ok := middleware.GetUserID(c); ok {
			req.UserID = id
		}
	}

	if err := h.svc.Telemetry.Track(c.Request.Context(), &req); err != nil {
		errorResponse(c, err)
		return
	}

	c.Status(http.StatusAccepted)
}

// List 查询事件（管理端），?event= 过滤事件名
func (h *TelemetryHandler) List(c *gin.Context) {
	offset, limit := getPagination(c)

	events, err := h.svc.Telemetry.List(c.Request.Context(), c.Query("event"), offset, limit)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"events": events})
}
