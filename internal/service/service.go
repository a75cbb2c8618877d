package service

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/redis/go-redis/v9"

	"github.com/hzwen/portfolio-ai/internal/config"
	"github.com/hzwen/portfolio-ai/internal/repository"
	"github.com/hzwen/portfolio-ai/internal/service/assistant"
	"github.com/hzwen/portfolio-ai/internal/service/auth"
	"github.com/hzwen/portfolio-ai/internal/service/chat"
	"github.com/hzwen/portfolio-ai/internal/service/portfolio"
	"github.com/hzwen/portfolio-ai/internal/service/session"
	"github.com/hzwen/portfolio-ai/internal/service/telemetry"
)

// Services 服务集合
type Services struct {
	Assistant *assistant.Service
	Chat      *chat.Service
	Auth      *auth.Service
	Portfolio *portfolio.Service
	Telemetry *telemetry.Service

	Config     *config.Config
	SessionMgr *session.Manager
}

// NewServices 创建所有服务
func NewServices(repo *repository.Repositories, cfg *config.Config, redisClient *redis.Client) (*Services, error) {
	ctx := context.Background()

	sessionMgr := session.NewManager(redisClient)
	portfolioSvc := portfolio.NewService(repo, cfg.Resume.Path)

	// 补全路由的 ChatModel，创建失败时降级为不可用而非启动失败
	chatModel, err := newChatModel(ctx, cfg)
	if err != nil {
		log.Printf("Warning: failed to create chat model: %v", err)
	}

	var generator chat.Generator
	if chatModel != nil {
		generator = chatModel
	}

	return &Services{
		Assistant: assistant.NewService(cfg, sessionMgr),
		Chat:      chat.NewService(repo, generator, portfolioSvc.SystemPrompt(ctx)),
		Auth:      auth.NewService(cfg),
		Portfolio: portfolioSvc,
		Telemetry: telemetry.NewService(repo),

		Config:     cfg,
		SessionMgr: sessionMgr,
	}, nil
}

// newChatModel 创建补全路由的 ChatModel
// gemini 经其 OpenAI 兼容端点接入，与 openai 共用同一组件
func newChatModel(ctx context.Context, cfg *config.Config) (einomodel.ChatModel, error) {
	aiCfg := cfg.AI

	var apiKey, baseURL, modelName string

	switch aiCfg.Provider {
	case "openai":
		apiKey = aiCfg.OpenAI.APIKey
		baseURL = aiCfg.OpenAI.BaseURL
		modelName = aiCfg.OpenAI.Model
	case "gemini":
		apiKey = aiCfg.Gemini.APIKey
		baseURL = aiCfg.Gemini.BaseURL
		modelName = aiCfg.Gemini.Model
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", aiCfg.Provider)
	}

	if apiKey == "" {
		return nil, fmt.Errorf("api_key is required for provider: %s", aiCfg.Provider)
	}

	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   modelName,
	})
}
