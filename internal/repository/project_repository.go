package repository

import (
	"github.com/hzwen/portfolio-ai/internal/model"
	"gorm.io/gorm"
)

// ProjectRepository 项目数据访问
type ProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository 创建项目仓库
func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create 创建项目
func (r *ProjectRepository) Create(project *model.Project) error {
	return r.db.Create(project).Error
}

// GetByID 获取项目
func (r *ProjectRepository) GetByID(id string) (*model.Project, error) {
	var project model.Project
	err := r.db.Where("id = ?", id).First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// List 列出项目，按排序权重与创建时间排列
func (r *ProjectRepository) List() ([]*model.Project, error) {
	var projects []*model.Project
	err := r.db.Order("sort_order ASC, created_at DESC").Find(&projects).Error
	return projects, err
}

// ListFeatured 列出精选项目
func (r *ProjectRepository) ListFeatured() ([]*model.Project, error) {
	var projects []*model.Project
	err := r.db.Where("featured = ?", true).Order("sort_order ASC").Find(&projects).Error
	return projects, err
}

// Update 更新项目
func (r *ProjectRepository) Update(project *model.Project) error {
	return r.db.Save(project).Error
}

// Delete 删除项目
func (r *ProjectRepository) Delete(id string) error {
	return r.db.Delete(&model.Project{}, "id = ?", id).Error
}
