package repository

import (
	"errors"
	"time"

	"github.com/hzwen/portfolio-ai/internal/model"
	"gorm.io/gorm"
)

// UserRepository 访客用户数据访问
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Touch 记录一次用户活跃：不存在则创建，存在则刷新最后活跃时间
func (r *UserRepository) Touch(id string) error {
	if id == "" {
		return nil
	}

	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(&model.User{ID: id}).Error
	}
	if err != nil {
		return err
	}

	return r.db.Model(&user).Update("last_seen_at", time.Now()).Error
}

// GetByID 获取用户
func (r *UserRepository) GetByID(id string) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
