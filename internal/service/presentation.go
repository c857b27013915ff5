package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/slidesmith/backend/internal/deck/layout"
	"github.com/slidesmith/backend/internal/deck/theme"
	"github.com/slidesmith/backend/internal/eventbus"
	"github.com/slidesmith/backend/internal/model"
	"github.com/slidesmith/backend/internal/pkg/imagesearch"
	"github.com/slidesmith/backend/internal/repository"
	"github.com/slidesmith/backend/internal/service/orchestrator"
	"github.com/slidesmith/backend/internal/service/statemachine"
	"k8s.io/klog/v2"
)

var (
	ErrPresentationNotFound = errors.New("presentation not found")
	ErrPresentationNotReady = errors.New("presentation is still generating")
	ErrAsyncUnavailable     = errors.New("async generation is not available")
)

const (
	defaultSlidesCount = 5
	defaultStyle       = theme.Minimal
)

// ImageSearcher 批量搜索图片，*imagesearch.Client 实现该接口
type ImageSearcher interface {
	SearchAll(ctx context.Context, queries map[int]string) map[int]*imagesearch.Photo
}

// JobQueue 异步生成队列，*orchestrator.Orchestrator 实现该接口
type JobQueue interface {
	Enqueue(job *orchestrator.Job) error
	Cancel(presentationID uint) bool
}

// CreatePresentationRequest 创建演示文稿请求
type CreatePresentationRequest struct {
	Topic       string `json:"topic" binding:"required,min=1,max=2000"`
	SlidesCount int    `json:"slides_count" binding:"omitempty,min=3,max=20"`
	Style       string `json:"style" binding:"max=50"`
	// TemplateID 指定后直接使用模板内容，不调用语言模型
	TemplateID *uint `json:"template_id"`
}

// SlideDTO 幻灯片数据传输对象
type SlideDTO struct {
	ID             uint   `json:"id"`
	PresentationID uint   `json:"presentation_id"`
	SlideNumber    int    `json:"slide_number"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	ImageURL       string `json:"image_url"`
	ImageAlt       string `json:"image_alt"`
	Layout         string `json:"layout"`
}

// PresentationDTO 演示文稿数据传输对象
type PresentationDTO struct {
	ID          uint        `json:"id"`
	Topic       string      `json:"topic"`
	Title       string      `json:"title"`
	Style       string      `json:"style"`
	SlidesCount int         `json:"slides_count"`
	LayoutOrder []string    `json:"layout_order"`
	Status      string      `json:"status"`
	ErrorMsg    string      `json:"error_msg,omitempty"`
	TemplateID  *uint       `json:"template_id,omitempty"`
	CreatedAt   string      `json:"created_at"`
	UpdatedAt   string      `json:"updated_at"`
	Slides      []*SlideDTO `json:"slides,omitempty"`
}

// PresentationService 演示文稿服务
type PresentationService struct {
	repo      repository.PresentationRepository
	templates repository.TemplateRepository
	drafter   *Drafter
	images    ImageSearcher
	queue     JobQueue
	events    *eventbus.PresentationEventBus
	states    *statemachine.PresentationStateMachine

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewPresentationService 创建服务，images 可为 nil，rnd 为 nil 时使用当前时间作为种子
func NewPresentationService(
	repo repository.PresentationRepository,
	templates repository.TemplateRepository,
	drafter *Drafter,
	images ImageSearcher,
	rnd *rand.Rand,
) *PresentationService {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &PresentationService{
		repo:      repo,
		templates: templates,
		drafter:   drafter,
		images:    images,
		states:    statemachine.NewPresentationStateMachine(),
		rnd:       rnd,
	}
}

// SetQueue 注入异步生成队列
func (s *PresentationService) SetQueue(queue JobQueue) {
	s.queue = queue
}

// SetEventBus 注入事件总线，未注入时删除操作直接取消生成任务
func (s *PresentationService) SetEventBus(bus *eventbus.PresentationEventBus) {
	s.events = bus
}

func (s *PresentationService) publish(ctx context.Context, event eventbus.PresentationEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event.Type, event); err != nil {
		klog.Warningf("[PresentationService] 事件处理失败: type=%s, id=%d, error=%v", event.Type, event.PresentationID, err)
	}
}

// Create 同步起草、配图并保存
func (s *PresentationService) Create(ctx context.Context, req CreatePresentationRequest) (*PresentationDTO, error) {
	p := s.newPresentation(req)
	p.Status = model.StatusReady

	slides, title, err := s.build(ctx, p)
	if err != nil {
		return nil, err
	}
	p.Title = title
	p.Slides = slides
	p.SlidesCount = len(slides)

	if err := s.repo.Create(p); err != nil {
		return nil, fmt.Errorf("failed to create presentation: %w", err)
	}
	klog.V(6).Infof("[PresentationService] 演示文稿已创建: id=%d, slides=%d", p.ID, len(slides))
	s.publish(ctx, eventbus.PresentationEvent{
		Type:           eventbus.PresentationEventReady,
		PresentationID: p.ID,
		Title:          p.Title,
		SlidesCount:    p.SlidesCount,
	})
	return toPresentationDTO(p), nil
}

// CreateAsync 保存为生成中状态并加入生成队列
func (s *PresentationService) CreateAsync(ctx context.Context, req CreatePresentationRequest) (*PresentationDTO, error) {
	if s.queue == nil {
		return nil, ErrAsyncUnavailable
	}
	if req.TemplateID != nil {
		if _, err := s.template(*req.TemplateID); err != nil {
			return nil, err
		}
	}

	p := s.newPresentation(req)
	p.Status = model.StatusGenerating
	if err := s.repo.Create(p); err != nil {
		return nil, fmt.Errorf("failed to create presentation: %w", err)
	}
	s.publish(ctx, eventbus.PresentationEvent{Type: eventbus.PresentationEventCreated, PresentationID: p.ID, Title: p.Title})

	if err := s.queue.Enqueue(orchestrator.NewJob(p.ID)); err != nil {
		klog.Errorf("[PresentationService] 入队失败: id=%d, error=%v", p.ID, err)
		s.fail(ctx, p.ID, err)
		return nil, err
	}
	return toPresentationDTO(p), nil
}

// Generate 执行一次异步生成，结束时状态变为 ready 或 failed
func (s *PresentationService) Generate(ctx context.Context, presentationID uint) error {
	p, err := s.repo.Get(presentationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPresentationNotFound
		}
		return fmt.Errorf("failed to get presentation: %w", err)
	}
	if err := s.states.Transition(p.Status, model.StatusReady, p.ID); err != nil {
		return err
	}

	slides, title, err := s.build(ctx, p)
	if err != nil {
		s.fail(ctx, p.ID, err)
		return err
	}

	// 生成期间可能已被删除或被标记为失败
	current, err := s.repo.Get(p.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPresentationNotFound
		}
		return fmt.Errorf("failed to get presentation: %w", err)
	}
	if err := s.states.Transition(current.Status, model.StatusReady, p.ID); err != nil {
		return err
	}

	if err := s.repo.ReplaceSlides(p.ID, slides); err != nil {
		s.fail(ctx, p.ID, err)
		return fmt.Errorf("failed to save slides: %w", err)
	}

	p.Title = title
	p.SlidesCount = len(slides)
	p.Status = model.StatusReady
	p.ErrorMsg = ""
	if err := s.repo.Save(p); err != nil {
		s.fail(ctx, p.ID, err)
		return fmt.Errorf("failed to save presentation: %w", err)
	}
	s.publish(ctx, eventbus.PresentationEvent{
		Type:           eventbus.PresentationEventReady,
		PresentationID: p.ID,
		Title:          p.Title,
		SlidesCount:    p.SlidesCount,
	})
	return nil
}

func (s *PresentationService) fail(ctx context.Context, id uint, cause error) {
	if err := s.repo.UpdateStatus(id, model.StatusFailed, cause.Error()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			klog.V(6).Infof("[PresentationService] 演示文稿已删除，跳过失败标记: id=%d", id)
			return
		}
		klog.Errorf("[PresentationService] 更新失败状态出错: id=%d, error=%v", id, err)
		return
	}
	s.publish(context.WithoutCancel(ctx), eventbus.PresentationEvent{
		Type:           eventbus.PresentationEventFailed,
		PresentationID: id,
		Error:          cause.Error(),
	})
}

// List 按创建时间倒序列出演示文稿，不含幻灯片
func (s *PresentationService) List(ctx context.Context, offset, limit int) ([]*PresentationDTO, error) {
	offset, limit = page(offset, limit)
	list, err := s.repo.List(offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list presentations: %w", err)
	}
	dtos := make([]*PresentationDTO, 0, len(list))
	for i := range list {
		dtos = append(dtos, toPresentationDTO(&list[i]))
	}
	return dtos, nil
}

// Get 获取演示文稿及幻灯片
func (s *PresentationService) Get(ctx context.Context, id uint) (*PresentationDTO, error) {
	p, err := s.repo.Get(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPresentationNotFound
		}
		return nil, fmt.Errorf("failed to get presentation: %w", err)
	}
	return toPresentationDTO(p), nil
}

// Delete 删除演示文稿，生成中的任务会被取消
func (s *PresentationService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPresentationNotFound
		}
		return fmt.Errorf("failed to delete presentation: %w", err)
	}
	if s.events != nil {
		s.publish(ctx, eventbus.PresentationEvent{Type: eventbus.PresentationEventDeleted, PresentationID: id})
	} else if s.queue != nil && s.queue.Cancel(id) {
		klog.V(6).Infof("[PresentationService] 已取消生成任务: id=%d", id)
	}
	return nil
}

// CleanupStale 将 timeout 之前开始且仍在生成中的演示文稿标记为失败
func (s *PresentationService) CleanupStale(timeout time.Duration) (int64, error) {
	return s.repo.FailStale(time.Now().Add(-timeout), "generation interrupted")
}

func (s *PresentationService) newPresentation(req CreatePresentationRequest) *model.Presentation {
	count := req.SlidesCount
	if count == 0 {
		count = defaultSlidesCount
	}
	style := req.Style
	if style == "" {
		style = defaultStyle
	}
	return &model.Presentation{
		Topic:       req.Topic,
		Title:       req.Topic,
		Style:       theme.Lookup(style).Name,
		SlidesCount: count,
		LayoutOrder: layout.Encode(s.shuffle()),
		TemplateID:  req.TemplateID,
	}
}

// shuffle 生成版式排列，*rand.Rand 非并发安全
func (s *PresentationService) shuffle() []layout.Kind {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return layout.Shuffle(s.rnd)
}

// build 根据模板或语言模型生成幻灯片并配图
func (s *PresentationService) build(ctx context.Context, p *model.Presentation) ([]model.Slide, string, error) {
	var (
		slides  []model.Slide
		queries map[int]string
		title   string
	)

	if p.TemplateID != nil {
		t, err := s.template(*p.TemplateID)
		if err != nil {
			return nil, "", err
		}
		parsed, err := parseTemplateJSON([]byte(t.Slides))
		if err != nil {
			return nil, "", err
		}
		slides, queries = templateSlides(parsed)
		title = t.Title
	} else {
		outline, err := s.drafter.Draft(ctx, p.Topic, p.SlidesCount, p.Style)
		if err != nil {
			return nil, "", err
		}
		slides = outline.toSlides()
		queries = outline.imageQueries()
		title = outline.Title
	}
	if title == "" {
		title = p.Topic
	}

	if s.images != nil && len(queries) > 0 {
		photos := s.images.SearchAll(ctx, queries)
		for i := range slides {
			photo := photos[slides[i].SlideNumber]
			if photo == nil {
				continue
			}
			slides[i].ImageURL = photo.URL
			if slides[i].ImageAlt == "" {
				slides[i].ImageAlt = photo.Alt
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	return slides, title, nil
}

func (s *PresentationService) template(id uint) (*model.Template, error) {
	t, err := s.templates.Get(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return t, nil
}

func toSlideDTO(s *model.Slide) *SlideDTO {
	return &SlideDTO{
		ID:             s.ID,
		PresentationID: s.PresentationID,
		SlideNumber:    s.SlideNumber,
		Title:          s.Title,
		Content:        s.Content,
		ImageURL:       s.ImageURL,
		ImageAlt:       s.ImageAlt,
		Layout:         s.Layout,
	}
}

func toPresentationDTO(p *model.Presentation) *PresentationDTO {
	dto := &PresentationDTO{
		ID:          p.ID,
		Topic:       p.Topic,
		Title:       p.Title,
		Style:       p.Style,
		SlidesCount: p.SlidesCount,
		Status:      p.Status,
		ErrorMsg:    p.ErrorMsg,
		TemplateID:  p.TemplateID,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
	for _, k := range layout.Parse(p.LayoutOrder) {
		dto.LayoutOrder = append(dto.LayoutOrder, string(k))
	}
	for i := range p.Slides {
		dto.Slides = append(dto.Slides, toSlideDTO(&p.Slides[i]))
	}
	return dto
}
