// Package portfolio 站点内容：项目、简历与联系表单
package portfolio

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/hzwen/portfolio-ai/internal/model"
	"github.com/hzwen/portfolio-ai/internal/repository"
)

// Service 作品集内容服务
type Service struct {
	repo       *repository.Repositories
	resumePath string

	mu     sync.RWMutex
	resume *Resume
}

// NewService 创建作品集服务
func NewService(repo *repository.Repositories, resumePath string) *Service {
	return &Service{repo: repo, resumePath: resumePath}
}

// ========== 简历 ==========

// Resume 简历内容，来自 YAML 文件
type Resume struct {
	Name      string   `yaml:"name" json:"name"`
	Headline  string   `yaml:"headline" json:"headline"`
	Location  string   `yaml:"location" json:"location"`
	Email     string   `yaml:"email" json:"email"`
	Links     []Link   `yaml:"links" json:"links"`
	Summary   string   `yaml:"summary" json:"summary"`
	Skills    []string `yaml:"skills" json:"skills"`
	Education []Entry  `yaml:"education" json:"education"`
	Work      []Entry  `yaml:"work" json:"work"`
}

// Link 外部链接
type Link struct {
	Label string `yaml:"label" json:"label"`
	URL   string `yaml:"url" json:"url"`
}

// Entry 简历条目（教育或工作经历）
type Entry struct {
	Title   string `yaml:"title" json:"title"`
	Org     string `yaml:"org" json:"org"`
	Period  string `yaml:"period" json:"period"`
	Details string `yaml:"details" json:"details"`
}

// GetResume 获取简历，首次读取后缓存
func (s *Service) GetResume(ctx context.Context) (*Resume, error) {
	s.mu.RLock()
	cached := s.resume
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	return s.ReloadResume(ctx)
}

// ReloadResume 重新读取简历文件
func (s *Service) ReloadResume(ctx context.Context) (*Resume, error) {
	raw, err := os.ReadFile(s.resumePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume: %w", err)
	}

	var resume Resume
	if err := yaml.Unmarshal(raw, &resume); err != nil {
		return nil, fmt.Errorf("failed to parse resume: %w", err)
	}

	s.mu.Lock()
	s.resume = &resume
	s.mu.Unlock()
	return &resume, nil
}

// SystemPrompt 由简历组装补全路由的系统提示词
// 简历不可用时返回空串，由调用方回退到内置提示词
func (s *Service) SystemPrompt(ctx context.Context) string {
	resume, err := s.GetResume(ctx)
	if err != nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are the assistant on %s's personal portfolio website. ", resume.Name)
	b.WriteString("Answer questions about the owner using the profile below. Keep answers concise and friendly.\n\n")
	if resume.Headline != "" {
		fmt.Fprintf(&b, "Headline: %s\n", resume.Headline)
	}
	if resume.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", resume.Summary)
	}
	if len(resume.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(resume.Skills, ", "))
	}
	for _, w := range resume.Work {
		fmt.Fprintf(&b, "Work: %s at %s (%s)\n", w.Title, w.Org, w.Period)
	}

	if projects, err := s.repo.Project.List(); err == nil && len(projects) > 0 {
		b.WriteString("Projects:\n")
		for _, p := range projects {
			fmt.Fprintf(&b, "- %s: %s\n", p.Title, p.Summary)
		}
	}
	return b.String()
}

// ========== 项目 ==========

// ProjectRequest 创建或更新项目的请求
type ProjectRequest struct {
	Title       string `json:"title" binding:"required"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
	RepoURL     string `json:"repo_url"`
	DemoURL     string `json:"demo_url"`
	Featured    bool   `json:"featured"`
	SortOrder   int    `json:"sort_order"`
}

// CreateProject 创建项目
func (s *Service) CreateProject(ctx context.Context, req *ProjectRequest) (*model.Project, error) {
	project := &model.Project{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Summary:     req.Summary,
		Description: req.Description,
		Tags:        req.Tags,
		RepoURL:     req.RepoURL,
		DemoURL:     req.DemoURL,
		Featured:    req.Featured,
		SortOrder:   req.SortOrder,
	}
	if err := s.repo.Project.Create(project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// GetProject 获取项目
func (s *Service) GetProject(ctx context.Context, id string) (*model.Project, error) {
	return s.repo.Project.GetByID(id)
}

// ListProjects 列出项目，featuredOnly 时只返回精选
func (s *Service) ListProjects(ctx context.Context, featuredOnly bool) ([]*model.Project, error) {
	if featuredOnly {
		return s.repo.Project.ListFeatured()
	}
	return s.repo.Project.List()
}

// UpdateProject 更新项目
func (s *Service) UpdateProject(ctx context.Context, id string, req *ProjectRequest) (*model.Project, error) {
	project, err := s.repo.Project.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("project not found: %w", err)
	}

	project.Title = req.Title
	project.Summary = req.Summary
	project.Description = req.Description
	project.Tags = req.Tags
	project.RepoURL = req.RepoURL
	project.DemoURL = req.DemoURL
	project.Featured = req.Featured
	project.SortOrder = req.SortOrder

	if err := s.repo.Project.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return project, nil
}

// DeleteProject 删除项目
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if err := s.repo.Project.Delete(id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// ========== 联系表单 ==========

// ContactRequest 联系表单提交
type ContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject"`
	Body    string `json:"body" binding:"required"`
}

// SubmitContact 保存一条留言
func (s *Service) SubmitContact(ctx context.Context, req *ContactRequest) (*model.ContactMessage, error) {
	msg := &model.ContactMessage{
		ID:      uuid.New().String(),
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Body,
	}
	if err := s.repo.Contact.Create(msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	return msg, nil
}

// ListContactMessages 列出留言，最新在前
func (s *Service) ListContactMessages(ctx context.Context, offset, limit int) ([]*model.ContactMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.Contact.List(offset, limit)
}
