package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/slidesmith/backend/internal/model"
	"github.com/slidesmith/backend/internal/repository"
	"k8s.io/klog/v2"
)

var (
	ErrSlideNotFound = errors.New("slide not found")
	ErrInvalidLayout = errors.New("invalid slide layout")
)

// UpdateSlideRequest 更新幻灯片请求，nil 字段保持不变
type UpdateSlideRequest struct {
	Title    *string `json:"title" binding:"omitempty,max=255"`
	Content  *string `json:"content"`
	ImageURL *string `json:"image_url" binding:"omitempty,max=1000"`
	ImageAlt *string `json:"image_alt" binding:"omitempty,max=500"`
	Layout   *string `json:"layout"`
}

// SlideService 幻灯片服务
type SlideService struct {
	repo    repository.SlideRepository
	drafter *Drafter
}

// NewSlideService 创建服务
func NewSlideService(repo repository.SlideRepository, drafter *Drafter) *SlideService {
	return &SlideService{repo: repo, drafter: drafter}
}

// Update 按字段更新幻灯片
func (s *SlideService) Update(ctx context.Context, id uint, req UpdateSlideRequest) (*SlideDTO, error) {
	slide, err := s.get(id)
	if err != nil {
		return nil, err
	}

	if req.Layout != nil {
		if *req.Layout != model.TitleSlideLayout && *req.Layout != "title-content" {
			return nil, fmt.Errorf("%w: %s", ErrInvalidLayout, *req.Layout)
		}
		slide.Layout = *req.Layout
	}
	if req.Title != nil {
		slide.Title = *req.Title
	}
	if req.Content != nil {
		slide.Content = *req.Content
	}
	if req.ImageURL != nil {
		slide.ImageURL = *req.ImageURL
	}
	if req.ImageAlt != nil {
		slide.ImageAlt = *req.ImageAlt
	}

	if err := s.repo.Save(slide); err != nil {
		return nil, fmt.Errorf("failed to update slide: %w", err)
	}
	return toSlideDTO(slide), nil
}

// Improve 使用语言模型改写幻灯片内容并保存
func (s *SlideService) Improve(ctx context.Context, id uint) (*SlideDTO, error) {
	slide, err := s.get(id)
	if err != nil {
		return nil, err
	}

	improved, err := s.drafter.ImproveSlide(ctx, slide.Title, slide.Content)
	if err != nil {
		return nil, err
	}
	slide.Content = improved
	if err := s.repo.Save(slide); err != nil {
		return nil, fmt.Errorf("failed to update slide: %w", err)
	}
	klog.V(6).Infof("[SlideService] 内容已改写: id=%d, length=%d", id, len(improved))
	return toSlideDTO(slide), nil
}

func (s *SlideService) get(id uint) (*model.Slide, error) {
	slide, err := s.repo.Get(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSlideNotFound
		}
		return nil, fmt.Errorf("failed to get slide: %w", err)
	}
	return slide, nil
}
