package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hzwen/portfolio-ai/internal/service"
	"github.com/hzwen/portfolio-ai/internal/service/chat"
)

// CompletionHandler 同步补全聊天处理器
// 与流式路由同属聊天线格式，响应不套统一信封
type CompletionHandler struct {
	svc *service.Services
}

// NewCompletionHandler 创建补全处理器
func NewCompletionHandler(svc *service.Services) *CompletionHandler {
	return &CompletionHandler{svc: svc}
}

// Send 发送消息并同步返回落库后的助手消息
func (h *CompletionHandler) Send(c *gin.Context) {
	var req chat.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	resp, err := h.svc.Chat.SendMessage(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, chat.ErrGeneratorUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId": resp.SessionID,
		"message":   resp.Message,
		"success":   true,
	})
}

// History 获取会话消息
func (h *CompletionHandler) History(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
		return
	}

	messages, err := h.svc.Chat.GetMessages(c.Request.Context(), sessionID)
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

// DeleteSession 删除会话
func (h *CompletionHandler) DeleteSession(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
		return
	}

	if err := h.svc.Chat.DeleteSession(c.Request.Context(), sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "session deleted"})
}
