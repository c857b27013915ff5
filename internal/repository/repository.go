package repository

import (
	"errors"
	"time"

	"github.com/slidesmith/backend/internal/model"
)

// ErrNotFound 记录不存在错误
var ErrNotFound = errors.New("record not found")

// TemplateRepository 幻灯片模板 Repository 接口
type TemplateRepository interface {
	Create(template *model.Template) error
	List(offset, limit int) ([]model.Template, error)
	Get(id uint) (*model.Template, error)
	GetByKey(key string) (*model.Template, error)
	Save(template *model.Template) error
	Delete(id uint) error
}

// PresentationRepository 演示文稿 Repository 接口
type PresentationRepository interface {
	Create(p *model.Presentation) error
	List(offset, limit int) ([]model.Presentation, error)
	Get(id uint) (*model.Presentation, error)
	Save(p *model.Presentation) error
	UpdateStatus(id uint, status, errMsg string) error
	ReplaceSlides(id uint, slides []model.Slide) error
	FailStale(before time.Time, errMsg string) (int64, error)
	Delete(id uint) error
}

// SlideRepository 幻灯片 Repository 接口
type SlideRepository interface {
	Get(id uint) (*model.Slide, error)
	GetByPresentation(presentationID uint) ([]model.Slide, error)
	Save(slide *model.Slide) error
}
