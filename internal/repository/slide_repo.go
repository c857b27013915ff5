package repository

import (
	"errors"

	"github.com/slidesmith/backend/internal/model"
	"gorm.io/gorm"
)

type slideRepository struct {
	db *gorm.DB
}

func NewSlideRepository(db *gorm.DB) SlideRepository {
	return &slideRepository{db: db}
}

func (r *slideRepository) Get(id uint) (*model.Slide, error) {
	var slide model.Slide
	result := r.db.First(&slide, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &slide, nil
}

// GetByPresentation 获取演示文稿的幻灯片，按 slide_number 排序
func (r *slideRepository) GetByPresentation(presentationID uint) ([]model.Slide, error) {
	var slides []model.Slide
	result := r.db.Where("presentation_id = ?", presentationID).
		Order("slide_number ASC, id ASC").
		Find(&slides)
	return slides, result.Error
}

func (r *slideRepository) Save(slide *model.Slide) error {
	return r.db.Save(slide).Error
}
