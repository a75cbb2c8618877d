package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hzwen/portfolio-ai/internal/service"
	"github.com/hzwen/portfolio-ai/internal/service/portfolio"
)

// PortfolioHandler 站点内容处理器：项目、简历、联系表单
type PortfolioHandler struct {
	svc *service.Services
}

// NewPortfolioHandler 创建站点内容处理器
func NewPortfolioHandler(svc *service.Services) *PortfolioHandler {
	return &PortfolioHandler{svc: svc}
}

// ========== 项目 ==========

// ListProjects 列出项目，?featured=true 只返回精选
func (h *PortfolioHandler) ListProjects(c *gin.Context) {
	featuredOnly := c.Query("featured") == "true"

	projects, err := h.svc.Portfolio.ListProjects(c.Request.Context(), featuredOnly)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"projects": projects})
}

// GetProject 获取项目
func (h *PortfolioHandler) GetProject(c *gin.Context) {
	project, err := h.svc.Portfolio.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, Response{Code: -1, Message: "project not found"})
		return
	}

	success(c, project)
}

// CreateProject 创建项目（管理端）
func (h *PortfolioHandler) CreateProject(c *gin.Context) {
	var req portfolio.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	project, err := h.svc.Portfolio.CreateProject(c.Request.Context(), &req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	created(c, project)
}

// UpdateProject 更新项目（管理端）
func (h *PortfolioHandler) UpdateProject(c *gin.Context) {
	var req portfolio.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	project, err := h.svc.Portfolio.UpdateProject(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, project)
}

// DeleteProject 删除项目（管理端）
func (h *PortfolioHandler) DeleteProject(c *gin.Context) {
	if err := h.svc.Portfolio.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		errorResponse(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ========== 简历 ==========

// GetResume 获取简历内容
func (h *PortfolioHandler) GetResume(c *gin.Context) {
	resume, err := h.svc.Portfolio.GetResume(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, resume)
}

// ReloadResume 重新加载简历文件（管理端）
func (h *PortfolioHandler) ReloadResume(c *gin.Context) {
	resume, err := h.svc.Portfolio.ReloadResume(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, resume)
}

// ========== 联系表单 ==========

// SubmitContact 提交联系表单
func (h *PortfolioHandler) SubmitContact(c *gin.Context) {
	var req portfolio.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	msg, err := h.svc.Portfolio.SubmitContact(c.Request.Context(), &req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	created(c, gin.H{"id": msg.ID})
}

// ListContactMessages 列出留言（管理端）
func (h *PortfolioHandler) ListContactMessages(c *gin.Context) {
	offset, limit := getPagination(c)

	messages, err := h.svc.Portfolio.ListContactMessages(c.Request.Context(), offset, limit)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"messages": messages})
}
