package repository

import (
	"errors"
	"time"

	"github.com/slidesmith/backend/internal/model"
	"gorm.io/gorm"
)

type presentationRepository struct {
	db *gorm.DB
}

func NewPresentationRepository(db *gorm.DB) PresentationRepository {
	return &presentationRepository{db: db}
}

// Create 创建演示文稿及其幻灯片
func (r *presentationRepository) Create(p *model.Presentation) error {
	return r.db.Create(p).Error
}

// List 按创建时间倒序分页，不含幻灯片
func (r *presentationRepository) List(offset, limit int) ([]model.Presentation, error) {
	var list []model.Presentation
	query := r.db.Order("created_at DESC, id DESC").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	result := query.Find(&list)
	return list, result.Error
}

// Get 获取演示文稿，幻灯片按 slide_number 排序
func (r *presentationRepository) Get(id uint) (*model.Presentation, error) {
	var p model.Presentation
	result := r.db.Preload("Slides", func(db *gorm.DB) *gorm.DB {
		return db.Order("slide_number ASC, id ASC")
	}).First(&p, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &p, nil
}

func (r *presentationRepository) Save(p *model.Presentation) error {
	return r.db.Omit("Slides").Save(p).Error
}

// UpdateStatus 更新生成状态
func (r *presentationRepository) UpdateStatus(id uint, status, errMsg string) error {
	result := r.db.Model(&model.Presentation{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":    status,
		"error_msg": errMsg,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceSlides 在一个事务内替换演示文稿的全部幻灯片
func (r *presentationRepository) ReplaceSlides(id uint, slides []model.Slide) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("presentation_id = ?", id).Delete(&model.Slide{}).Error; err != nil {
			return err
		}
		if len(slides) == 0 {
			return nil
		}
		for i := range slides {
			slides[i].ID = 0
			slides[i].PresentationID = id
		}
		return tx.Create(&slides).Error
	})
}

// FailStale 将 before 之前进入生成状态且仍未结束的演示文稿标记为失败
func (r *presentationRepository) FailStale(before time.Time, errMsg string) (int64, error) {
	result := r.db.Model(&model.Presentation{}).
		Where("status = ? AND updated_at < ?", model.StatusGenerating, before).
		Updates(map[string]interface{}{
			"status":    model.StatusFailed,
			"error_msg": errMsg,
		})
	return result.RowsAffected, result.Error
}

// Delete 删除演示文稿（级联删除幻灯片）
func (r *presentationRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("presentation_id = ?", id).Delete(&model.Slide{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Presentation{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
