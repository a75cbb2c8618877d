package model

import "time"

// ChatSession 聊天会话（补全路由的本地会话，流式路由的线程由提供方托管）
type ChatSession struct {
	ID        string        `gorm:"primaryKey;size:36" json:"id"`
	UserID    string        `gorm:"index;size:64" json:"user_id"`
	Provider  string        `gorm:"size:20;default:gemini" json:"provider"`
	Status    string        `gorm:"index;size:20;default:active" json:"status"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
	Messages  []ChatMessage `gorm:"foreignKey:SessionID" json:"messages,omitempty"`
}

// ChatMessage 聊天消息
type ChatMessage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	SessionID string    `gorm:"index;size:36" json:"session_id"`
	Role      string    `gorm:"size:20;index" json:"role"` // user, assistant, system
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// ChatProjectLink 会话与项目的关联（用户在对话中提到某个项目时记录）
type ChatProjectLink struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	SessionID string    `gorm:"index;size:36" json:"session_id"`
	ProjectID string    `gorm:"index;size:36" json:"project_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (ChatSession) TableName() string {
	return "sessions"
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

func (ChatProjectLink) TableName() string {
	return "chat_project_links"
}
