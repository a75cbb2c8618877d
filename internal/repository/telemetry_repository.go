package repository

import (
	"github.com/hzwen/portfolio-ai/internal/model"
	"gorm.io/gorm"
)

// TelemetryRepository 埋点数据访问
type TelemetryRepository struct {
	db *gorm.DB
}

// NewTelemetryRepository 创建埋点仓库
func NewTelemetryRepository(db *gorm.DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

// Create 记录事件
func (r *TelemetryRepository) Create(event *model.TelemetryEvent) error {
	return r.db.Create(event).Error
}

// ListByEvent 按事件名查询，最新在前
func (r *TelemetryRepository) ListByEvent(event string, offset, limit int) ([]*model.TelemetryEvent, error) {
	var events []*model.TelemetryEvent
	query := r.db.Order("created_at DESC").Offset(offset).Limit(limit)
	if event != "" {
		query = query.Where("event = ?", event)
	}
	err := query.Find(&events).Error
	return events, err
}
