package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/slidesmith/backend/internal/deck/assemble"
	"github.com/slidesmith/backend/internal/deck/layout"
	"github.com/slidesmith/backend/internal/model"
	"github.com/slidesmith/backend/internal/repository"
	"github.com/slidesmith/backend/internal/utils"
	"k8s.io/klog/v2"
)

// Assembler 文档组装，*assemble.Assembler 实现该接口
type Assembler interface {
	Assemble(ctx context.Context, req assemble.Request) (string, error)
}

// Artifact 生成的文档，调用方负责在交付后调用 Remove
type Artifact struct {
	Path     string
	Filename string
}

// Remove 删除产物文件
func (a *Artifact) Remove() {
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		klog.Warningf("[ExportService] 删除产物失败: path=%s, error=%v", a.Path, err)
	}
}

// ExportService 渲染并导出 PPTX
type ExportService struct {
	presentations repository.PresentationRepository
	templates     repository.TemplateRepository
	assembler     Assembler
	outputDir     string
}

// NewExportService 创建导出服务
func NewExportService(
	presentations repository.PresentationRepository,
	templates repository.TemplateRepository,
	assembler Assembler,
	outputDir string,
) *ExportService {
	return &ExportService{
		presentations: presentations,
		templates:     templates,
		assembler:     assembler,
		outputDir:     outputDir,
	}
}

// Download 按保存的幻灯片、主题和版式顺序生成 PPTX
func (s *ExportService) Download(ctx context.Context, presentationID uint) (*Artifact, error) {
	p, err := s.presentations.Get(presentationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPresentationNotFound
		}
		return nil, fmt.Errorf("failed to get presentation: %w", err)
	}
	if p.Status == model.StatusGenerating {
		return nil, ErrPresentationNotReady
	}

	title := p.Title
	if title == "" {
		title = p.Topic
	}
	path, err := s.assembler.Assemble(ctx, assemble.Request{
		Title:       title,
		Style:       p.Style,
		Template:    slideSpecs(title, p.Slides),
		LayoutOrder: layout.Parse(p.LayoutOrder),
		OutputDir:   s.outputDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render presentation: %w", err)
	}
	return &Artifact{Path: path, Filename: utils.SafeFilename(p.Topic, ".pptx")}, nil
}

// DownloadTemplate 直接渲染已保存的模板
func (s *ExportService) DownloadTemplate(ctx context.Context, templateID uint, style string) (*Artifact, error) {
	t, err := s.templates.Get(templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	parsed, err := parseTemplateJSON([]byte(t.Slides))
	if err != nil {
		return nil, err
	}

	path, err := s.assembler.Assemble(ctx, assemble.Request{
		Title:     t.Title,
		Style:     style,
		Template:  parsed,
		OutputDir: s.outputDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}
	return &Artifact{Path: path, Filename: utils.SafeFilename(t.Title, ".pptx")}, nil
}
