package model

import "time"

// User 访客用户
// ID 由客户端生成并随请求携带（"user-" 前缀的伪标识），
// 仅用于消息归因与埋点，不承担认证职责
type User struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	FirstSeen  time.Time `gorm:"autoCreateTime" json:"first_seen"`
	LastSeenAt time.Time `gorm:"autoUpdateTime" json:"last_seen_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
