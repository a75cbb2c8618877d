package repository

import (
	"github.com/hzwen/portfolio-ai/internal/model"
	"gorm.io/gorm"
)

// ContactRepository 联系表单数据访问
type ContactRepository struct {
	db *gorm.DB
}

// NewContactRepository 创建联系表单仓库
func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create 保存留言
func (r *ContactRepository) Create(msg *model.ContactMessage) error {
	return r.db.Create(msg).Error
}

// List 列出留言，最新在前
func (r *ContactRepository) List(offset, limit int) ([]*model.ContactMessage, error) {
	var messages []*model.ContactMessage
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&messages).Error
	return messages, err
}
