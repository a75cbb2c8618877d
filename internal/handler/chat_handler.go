package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hzwen/portfolio-ai/internal/service"
	"github.com/hzwen/portfolio-ai/internal/service/assistant"
)

// ChatHandler 流式聊天处理器（Assistants 路由）
// 聊天路由的响应形状是与前端约定的线格式，不套统一信封
type ChatHandler struct {
	svc *service.Services
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(svc *service.Services) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// streamRequest 流式发送请求体
type streamRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}

// Stream 发送消息并以 SSE 推送回复
// 事件格式：data: {"type":"content"|"complete"|"error",...}\n\n
func (h *ChatHandler) Stream(c *gin.Context) {
	var req streamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	events, err := h.svc.Assistant.StreamMessage(c.Request.Context(), &assistant.StreamRequest{
		Message:  req.Message,
		ThreadID: req.SessionID,
		UserID:   req.UserID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	for event := range events {
		raw, err := json.Marshal(event)
		if err != nil {
			continue
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", raw); err != nil {
			// 客户端断开，消费方的 ctx 随之取消
			return
		}
		c.Writer.Flush()
	}
}

// History 获取会话历史
func (h *ChatHandler) History(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
		return
	}

	messages, err := h.svc.Assistant.GetHistory(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId": sessionID,
		"messages":  messages,
		"success":   true,
	})
}

// DeleteSession 删除会话（中止在途流并删除远端线程）
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
		return
	}

	if err := h.svc.Assistant.DeleteSession(c.Request.Context(), sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "session deleted"})
}
