// Package chat 同步补全路由的聊天服务
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hzwen/portfolio-ai/internal/model"
	"github.com/hzwen/portfolio-ai/internal/repository"
)

// historyWindow 带入模型上下文的历史消息条数
const historyWindow = 10

// defaultSystemPrompt 未配置简历驱动提示词时的兜底
const defaultSystemPrompt = "You are a helpful assistant on a personal portfolio website. " +
	"Answer questions about the site owner's background, projects and experience. " +
	"Keep responses concise and friendly."

// Generator 补全生成器，eino 的 ChatModel 直接满足该接口
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

// Service 聊天服务
type Service struct {
	repo         *repository.Repositories
	gen          Generator
	systemPrompt string
}

// NewService 创建聊天服务
// systemPrompt 为空时使用内置兜底提示词
func NewService(repo *repository.Repositories, gen Generator, systemPrompt string) *Service {
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	return &Service{repo: repo, gen: gen, systemPrompt: systemPrompt}
}

// ErrGeneratorUnavailable 补全模型未配置
var ErrGeneratorUnavailable = errors.New("chat model is not configured")

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}

// SendMessageResponse 发送消息响应：会话标识与落库后的助手消息
type SendMessageResponse struct {
	SessionID string             `json:"sessionId"`
	Message   *model.ChatMessage `json:"message"`
}

// SendMessage 处理一轮同步对话：
// 解析会话、落库用户消息、带最近历史调用模型、落库回复
func (s *Service) SendMessage(ctx context.Context, req *SendMessageRequest) (*SendMessageResponse, error) {
	if s.gen == nil {
		return nil, ErrGeneratorUnavailable
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, errors.New("message is required")
	}

	session, err := s.resolveSession(req.SessionID, req.UserID)
	if err != nil {
		return nil, err
	}

	if req.UserID != "" {
		// 用户记录失败不阻塞对话
		_ = s.repo.User.Touch(req.UserID)
	}

	userMsg := &model.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: session.ID,
		Role:      "user",
		Content:   req.Message,
	}
	if err := s.repo.Chat.CreateMessage(userMsg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	messages, err := s.buildPrompt(session.ID)
	if err != nil {
		return nil, err
	}

	reply, err := s.gen.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to generate response: %w", err)
	}

	assistantMsg := &model.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: session.ID,
		Role:      "assistant",
		Content:   reply.Content,
	}
	if err := s.repo.Chat.CreateMessage(assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to save response: %w", err)
	}

	s.linkMentionedProjects(session.ID, reply.Content)

	return &SendMessageResponse{
		SessionID: session.ID,
		Message:   assistantMsg,
	}, nil
}

// resolveSession 复用客户端携带的会话，缺失或不存在时新建
func (s *Service) resolveSession(sessionID, userID string) (*model.ChatSession, error) {
	if sessionID != "" {
		session, err := s.repo.Chat.GetSessionByID(sessionID)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
	}

	session := &model.ChatSession{
		ID:     uuid.New().String(),
		UserID: userID,
		Status: "active",
	}
	if err := s.repo.Chat.CreateSession(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// buildPrompt 组装系统提示词与最近的会话历史
func (s *Service) buildPrompt(sessionID string) ([]*schema.Message, error) {
	history, err := s.repo.Chat.GetRecentMessagesBySession(sessionID, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	messages := make([]*schema.Message, 0, len(history)+1)
	messages = append(messages, schema.SystemMessage(s.systemPrompt))
	for _, m := range history {
		switch m.Role {
		case "assistant":
			messages = append(messages, schema.AssistantMessage(m.Content, nil))
		default:
			messages = append(messages, schema.UserMessage(m.Content))
		}
	}
	return messages, nil
}

// linkMentionedProjects 回复中出现项目标题时记录会话与项目的关联
// 尽力而为：失败只影响统计，不影响对话
func (s *Service) linkMentionedProjects(sessionID, reply string) {
	projects, err := s.repo.Project.List()
	if err != nil {
		return
	}

	lowered := strings.ToLower(reply)
	for _, p := range projects {
		if p.Title == "" || !strings.Contains(lowered, strings.ToLower(p.Title)) {
			continue
		}
		exists, err := s.repo.Chat.HasProjectLink(sessionID, p.ID)
		if err != nil || exists {
			continue
		}
		_ = s.repo.Chat.CreateProjectLink(&model.ChatProjectLink{
			ID:        uuid.New().String(),
			SessionID: sessionID,
			ProjectID: p.ID,
		})
	}
}

// GetMessages 获取会话消息，按时间正序
func (s *Service) GetMessages(ctx context.Context, sessionID string) ([]*model.ChatMessage, error) {
	return s.repo.Chat.GetMessagesBySessionID(sessionID)
}

// DeleteSession 删除会话及其消息
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.repo.Chat.DeleteSession(sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
