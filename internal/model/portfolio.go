package model

import "time"

// Project 作品集项目
type Project struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"size:255;index" json:"title"`
	Summary     string    `gorm:"size:512" json:"summary"`
	Description string    `gorm:"type:text" json:"description"`
	Tags        string    `gorm:"size:255" json:"tags"` // 逗号分隔
	RepoURL     string    `gorm:"size:512" json:"repo_url"`
	DemoURL     string    `gorm:"size:512" json:"demo_url"`
	Featured    bool      `gorm:"index;default:false" json:"featured"`
	SortOrder   int       `gorm:"default:0" json:"sort_order"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ContactMessage 联系表单留言
type ContactMessage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:128" json:"name"`
	Email     string    `gorm:"size:255;index" json:"email"`
	Subject   string    `gorm:"size:255" json:"subject"`
	Body      string    `gorm:"type:text" json:"body"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (Project) TableName() string {
	return "projects"
}

func (ContactMessage) TableName() string {
	return "contact_messages"
}
