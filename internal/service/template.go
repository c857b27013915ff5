package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/slidesmith/backend/internal/deck/content"
	"github.com/slidesmith/backend/internal/model"
	"github.com/slidesmith/backend/internal/repository"
)

var (
	ErrTemplateNotFound    = errors.New("template not found")
	ErrTemplateKeyExists   = errors.New("template key already exists")
	ErrInvalidTemplateData = errors.New("invalid template data")
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// TemplateDTO 模板数据传输对象
type TemplateDTO struct {
	ID         uint            `json:"id"`
	Key        string          `json:"key"`
	Title      string          `json:"title"`
	Slides     json.RawMessage `json:"slides"`
	SlideCount int             `json:"slide_count"`
	PreviewURL string          `json:"preview_url"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

// CreateTemplateRequest 创建模板请求，slides 可以是幻灯片数组或 {title, slides} 对象
type CreateTemplateRequest struct {
	Key        string          `json:"key" binding:"max=100"`
	Title      string          `json:"title" binding:"max=255"`
	Slides     json.RawMessage `json:"slides" binding:"required"`
	PreviewURL string          `json:"preview_url" binding:"max=500"`
}

// UpdateTemplateRequest 更新模板请求，未提供的字段保持不变
type UpdateTemplateRequest struct {
	Title      *string         `json:"title" binding:"omitempty,max=255"`
	Slides     json.RawMessage `json:"slides"`
	PreviewURL *string         `json:"preview_url" binding:"omitempty,max=500"`
}

// TemplateService 模板服务接口
type TemplateService interface {
	List(ctx context.Context, offset, limit int) ([]*TemplateDTO, error)
	GetByID(ctx context.Context, id uint) (*TemplateDTO, error)
	Create(ctx context.Context, req CreateTemplateRequest) (*TemplateDTO, error)
	Update(ctx context.Context, id uint, req UpdateTemplateRequest) (*TemplateDTO, error)
	Delete(ctx context.Context, id uint) error
}

type templateService struct {
	repo repository.TemplateRepository
}

// NewTemplateService 创建模板服务
func NewTemplateService(repo repository.TemplateRepository) TemplateService {
	return &templateService{repo: repo}
}

// List 分页获取模板
func (s *templateService) List(ctx context.Context, offset, limit int) ([]*TemplateDTO, error) {
	offset, limit = page(offset, limit)
	templates, err := s.repo.List(offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	dtos := make([]*TemplateDTO, 0, len(templates))
	for i := range templates {
		dtos = append(dtos, toTemplateDTO(&templates[i]))
	}
	return dtos, nil
}

// GetByID 获取模板
func (s *templateService) GetByID(ctx context.Context, id uint) (*TemplateDTO, error) {
	t, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return toTemplateDTO(t), nil
}

// Create 校验模板 JSON 后保存
func (s *templateService) Create(ctx context.Context, req CreateTemplateRequest) (*TemplateDTO, error) {
	parsed, err := parseTemplateJSON(req.Slides)
	if err != nil {
		return nil, err
	}

	if req.Key != "" {
		_, err := s.repo.GetByKey(req.Key)
		if err == nil {
			return nil, ErrTemplateKeyExists
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to check template key: %w", err)
		}
	}

	title := req.Title
	if title == "" {
		title = parsed.Title
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidTemplateData)
	}

	t := &model.Template{
		Key:        req.Key,
		Title:      title,
		Slides:     string(req.Slides),
		PreviewURL: req.PreviewURL,
	}
	if err := s.repo.Create(t); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return toTemplateDTO(t), nil
}

// Update 更新模板
func (s *templateService) Update(ctx context.Context, id uint, req UpdateTemplateRequest) (*TemplateDTO, error) {
	t, err := s.get(id)
	if err != nil {
		return nil, err
	}

	if len(req.Slides) > 0 {
		if _, err := parseTemplateJSON(req.Slides); err != nil {
			return nil, err
		}
		t.Slides = string(req.Slides)
	}
	if req.Title != nil {
		if *req.Title == "" {
			return nil, fmt.Errorf("%w: title is required", ErrInvalidTemplateData)
		}
		t.Title = *req.Title
	}
	if req.PreviewURL != nil {
		t.PreviewURL = *req.PreviewURL
	}

	if err := s.repo.Save(t); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return toTemplateDTO(t), nil
}

// Delete 删除模板
func (s *templateService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

func (s *templateService) get(id uint) (*model.Template, error) {
	t, err := s.repo.Get(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return t, nil
}

// parseTemplateJSON 解析模板 JSON，失败时包装为 ErrInvalidTemplateData
func parseTemplateJSON(data []byte) (*content.Template, error) {
	parsed, err := content.ParseTemplate(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplateData, err)
	}
	return parsed, nil
}

// page 规范化分页参数
func page(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return offset, limit
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func toTemplateDTO(t *model.Template) *TemplateDTO {
	dto := &TemplateDTO{
		ID:         t.ID,
		Key:        t.Key,
		Title:      t.Title,
		PreviewURL: t.PreviewURL,
		CreatedAt:  formatTime(t.CreatedAt),
		UpdatedAt:  formatTime(t.UpdatedAt),
	}
	if json.Valid([]byte(t.Slides)) {
		dto.Slides = json.RawMessage(t.Slides)
	}
	if parsed, err := content.ParseTemplate([]byte(t.Slides)); err == nil {
		dto.SlideCount = len(parsed.Slides)
	}
	return dto
}
