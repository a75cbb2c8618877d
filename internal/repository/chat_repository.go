package repository

import (
	"github.com/hzwen/portfolio-ai/internal/model"
	"gorm.io/gorm"
)

// ChatRepository 聊天数据访问
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository 创建聊天仓库
func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreateSession 创建会话
func (r *ChatRepository) CreateSession(session *model.ChatSession) error {
	return r.db.Create(session).Error
}

// GetSessionByID 获取会话
func (r *ChatRepository) GetSessionByID(id string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.db.Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteSession 删除会话及其消息与项目关联
func (r *ChatRepository) DeleteSession(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.ChatMessage{}, "session_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.ChatProjectLink{}, "session_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ChatSession{}, "id = ?", id).Error
	})
}

// CreateMessage 创建消息
func (r *ChatRepository) CreateMessage(msg *model.ChatMessage) error {
	return r.db.Create(msg).Error
}

// GetMessagesBySessionID 获取会话消息，按时间正序
func (r *ChatRepository) GetMessagesBySessionID(sessionID string) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	err := r.db.Where("session_id = ?", sessionID).Order("created_at ASC").Find(&messages).Error
	return messages, err
}

// GetRecentMessagesBySession 获取会话最近的 N 条消息，按时间正序返回
func (r *ChatRepository) GetRecentMessagesBySession(sessionID string, limit int) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// 倒序查询结果翻转回时间正序
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// CreateProjectLink 记录会话与项目的关联
func (r *ChatRepository) CreateProjectLink(link *model.ChatProjectLink) error {
	return r.db.Create(link).Error
}

// HasProjectLink 会话是否已关联某项目
func (r *ChatRepository) HasProjectLink(sessionID, projectID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.ChatProjectLink{}).
		Where("session_id = ? AND project_id = ?", sessionID, projectID).
		Count(&count).Error
	return count > 0, err
}

// GetProjectLinksBySession 获取会话关联的项目
func (r *ChatRepository) GetProjectLinksBySession(sessionID string) ([]*model.ChatProjectLink, error) {
	var links []*model.ChatProjectLink
	err := r.db.Where("session_id = ?", sessionID).Find(&links).Error
	return links, err
}
