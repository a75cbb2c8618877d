package handler

import (
	"gorm.io/gorm"

	"github.com/hzwen/portfolio-ai/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Chat       *ChatHandler
	Completion *CompletionHandler
	Portfolio  *PortfolioHandler
	Telemetry  *TelemetryHandler
	Auth       *AuthHandler
	System     *SystemHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services, db *gorm.DB) *Handlers {
	return &Handlers{
		Chat:       NewChatHandler(svc),
		Completion: NewCompletionHandler(svc),
		Portfolio:  NewPortfolioHandler(svc),
		Telemetry:  NewTelemetryHandler(svc),
		Auth:       NewAuthHandler(svc),
		System:     NewSystemHandler(svc, db),
	}
}
