package model

import "time"

// TelemetryEvent 前端埋点事件，UserID 为客户端生成的伪标识
type TelemetryEvent struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"index;size:64" json:"user_id"`
	SessionID string    `gorm:"index;size:64" json:"session_id"`
	Event     string    `gorm:"size:64;index" json:"event"`
	Payload   string    `gorm:"type:text" json:"payload"` // JSON
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 指定表名
func (TelemetryEvent) TableName() string {
	return "telemetry_events"
}
