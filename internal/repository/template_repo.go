package repository

import (
	"errors"

	"github.com/slidesmith/backend/internal/model"
	"gorm.io/gorm"
)

type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository 创建 Repository 实例
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

// Create 创建模板
func (r *templateRepository) Create(template *model.Template) error {
	return r.db.Create(template).Error
}

// List 分页获取模板列表，按 ID 升序
func (r *templateRepository) List(offset, limit int) ([]model.Template, error) {
	var templates []model.Template
	query := r.db.Order("id ASC").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	result := query.Find(&templates)
	return templates, result.Error
}

// Get 根据ID获取模板
func (r *templateRepository) Get(id uint) (*model.Template, error) {
	var template model.Template
	result := r.db.First(&template, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &template, nil
}

// GetByKey 根据 key 获取模板
func (r *templateRepository) GetByKey(key string) (*model.Template, error) {
	var template model.Template
	result := r.db.Where("`key` = ?", key).First(&template)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &template, nil
}

// Save 更新模板
func (r *templateRepository) Save(template *model.Template) error {
	return r.db.Save(template).Error
}

// Delete 删除模板
func (r *templateRepository) Delete(id uint) error {
	result := r.db.Delete(&model.Template{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
