package assemble

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/slidesmith/backend/internal/deck/asset"
	"github.com/slidesmith/backend/internal/deck/content"
	"github.com/slidesmith/backend/internal/deck/layout"
	"github.com/slidesmith/backend/internal/deck/pptx"
	"github.com/slidesmith/backend/internal/deck/render"
	"github.com/slidesmith/backend/internal/deck/theme"
	"k8s.io/klog/v2"
)

// DefaultTitle 文档没有标题时使用的占位标题
const DefaultTitle = "Presentation"

// ErrNoTemplate 请求未携带模板
var ErrNoTemplate = errors.New("template is required")

// AssetResolver 图片解析器，*asset.Resolver 实现该接口
type AssetResolver interface {
	ResolveAll(ctx context.Context, refs map[int]content.ImageRef, dir string) map[int]*asset.ResolvedAsset
}

// Request 一次文档生成请求
type Request struct {
	Title       string
	Style       string
	Template    *content.Template
	LayoutOrder []layout.Kind
	// Images 调用方已下载到本地的图片路径，按模板中的页序号索引，优先于远程图片
	// 文件不存在或不是可嵌入的图片时忽略，回退到远程图片或纯文本版式
	Images    map[int]string
	OutputDir string
}

// Assembler 文档组装器
type Assembler struct {
	resolver AssetResolver
}

// New 创建文档组装器
func New(resolver AssetResolver) *Assembler {
	return &Assembler{resolver: resolver}
}

type pending struct {
	slide  content.Slide
	layout layout.Kind
}

// Assemble 渲染模板并写出 PPTX，返回产物路径，路径的所有权交给调用方
func (a *Assembler) Assemble(ctx context.Context, req Request) (string, error) {
	if req.Template == nil {
		return "", ErrNoTemplate
	}
	title := req.Title
	if title == "" {
		title = req.Template.Title
	}
	if title == "" {
		title = DefaultTitle
	}
	th := theme.Lookup(req.Style)

	outDir := req.OutputDir
	if outDir == "" {
		outDir = os.TempDir()
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	scratch, err := os.MkdirTemp("", "deck-assets-")
	if err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			klog.Warningf("[Assembler] 清理临时目录失败: dir=%s, error=%v", scratch, err)
		}
	}()

	specs := Order(req.Template.Slides)
	local := make(map[int]string)
	var slides []pending
	refs := make(map[int]content.ImageRef)
	ordinal := 0
	for i, spec := range specs {
		s := content.ClassifySlide(i, spec)
		switch s.Role {
		case content.RoleSkip:
			klog.V(6).Infof("[Assembler] 跳过无内容幻灯片: index=%d, id=%s", i, spec.ID)
			continue
		case content.RoleTitle:
			slides = append(slides, pending{slide: s})
			continue
		}

		kind := layout.Select(ordinal, req.LayoutOrder)
		ordinal++
		slides = append(slides, pending{slide: s, layout: kind})
		if path, ok := req.Images[i]; ok {
			err := checkImage(path)
			if err == nil {
				local[i] = path
				continue
			}
			klog.Warningf("[Assembler] 本地图片不可用，忽略: index=%d, path=%s, error=%v", i, path, err)
		}
		if s.Image != nil && kind.ShowsImage() && a.resolver != nil {
			refs[i] = *s.Image
		}
	}

	var resolved map[int]*asset.ResolvedAsset
	if len(refs) > 0 {
		resolved = a.resolver.ResolveAll(ctx, refs, scratch)
	}

	var out []render.Slide
	for _, p := range slides {
		if p.slide.Role == content.RoleTitle {
			out = append(out, render.RenderTitle(p.slide.Title, p.slide.Subtitle, th))
			continue
		}
		imagePath := local[p.slide.Index]
		if imagePath == "" {
			if ra := resolved[p.slide.Index]; ra != nil {
				imagePath = ra.Path
			}
		}
		r := render.Render(p.slide, p.layout, imagePath, th)
		klog.V(6).Infof("[Assembler] 渲染幻灯片: index=%d, layout=%s, image=%t", p.slide.Index, r.Layout, imagePath != "")
		out = append(out, r)
	}
	if len(out) == 0 {
		klog.V(6).Infof("[Assembler] 模板没有可渲染的幻灯片，使用标题页: title=%s", title)
		out = append(out, render.RenderTitle(title, "", th))
	}

	path := filepath.Join(outDir, uuid.NewString()+".pptx")
	if err := pptx.WriteFile(path, title, out); err != nil {
		klog.Errorf("[Assembler] 写出文档失败: path=%s, error=%v", path, err)
		return "", err
	}
	klog.V(6).Infof("[Assembler] 文档生成完成: path=%s, slides=%d, theme=%s", path, len(out), th.Name)
	return path, nil
}

// embeddableMIMEs 可直接嵌入 PPTX 的图片类型
var embeddableMIMEs = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/bmp":  true,
}

// checkImage 检查本地文件存在且内容是可嵌入的图片
func checkImage(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if mime := mimetype.Detect(data).String(); !embeddableMIMEs[mime] {
		return fmt.Errorf("unsupported image type: %s", mime)
	}
	return nil
}

// Order 所有幻灯片都带 slide_number 时按其排序，否则保持模板顺序
func Order(specs []content.SlideSpec) []content.SlideSpec {
	for _, s := range specs {
		if !s.HasNumber {
			return specs
		}
	}
	ordered := make([]content.SlideSpec, len(specs))
	copy(ordered, specs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Number < ordered[j].Number
	})
	return ordered
}
