// Package telemetry 前端埋点接收
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/hzwen/portfolio-ai/internal/model"
	"github.com/hzwen/portfolio-ai/internal/repository"
)

// Service 埋点服务
type Service struct {
	repo *repository.Repositories
}

// NewService 创建埋点服务
func NewService(repo *repository.Repositories) *Service {
	return &Service{repo: repo}
}

// TrackRequest 上报一个事件
type TrackRequest struct {
	Event     string         `json:"event" binding:"required"`
	UserID    string         `json:"userId"`
	SessionID string         `json:"sessionId"`
	Payload   map[string]any `json:"payload"`
}

// Track 记录事件
func (s *Service) Track(ctx context.Context, req *TrackRequest) error {
	var payload string
	if len(req.Payload) > 0 {
		raw, err := json.Marshal(req.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload: %w", err)
		}
		payload = string(raw)
	}

	event := &model.TelemetryEvent{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Event:     req.Event,
		Payload:   payload,
	}
	if err := s.repo.Telemetry.Create(event); err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}

	if req.UserID != "" {
		_ = s.repo.User.Touch(req.UserID)
	}
	return nil
}

// List 按事件名查询，event 为空时返回全部
func (s *Service) List(ctx context.Context, event string, offset, limit int) ([]*model.TelemetryEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.Telemetry.ListByEvent(event, offset, limit)
}
