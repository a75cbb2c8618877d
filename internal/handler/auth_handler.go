package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hzwen/portfolio-ai/internal/service"
	"github.com/hzwen/portfolio-ai/internal/service/auth"
)

// AuthHandler 管理端认证处理器
type AuthHandler struct {
	svc *service.Services
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(svc *service.Services) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Login 管理员登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}

	resp, err := h.svc.Auth.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, Response{Code: -1, Message: "Invalid username or password"})
			return
		}
		errorResponse(c, err)
		return
	}

	success(c, resp)
}

// Me 返回当前管理员信息，用于前端校验会话
func (h *AuthHandler) Me(c *gin.Context) {
	username, _ := c.Get("admin")
	success(c, gin.H{"username": username})
}
