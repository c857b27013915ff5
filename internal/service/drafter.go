package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/slidesmith/backend/internal/deck/content"
	imodel "github.com/slidesmith/backend/internal/model"
	"github.com/slidesmith/backend/internal/utils"
	"k8s.io/klog/v2"
)

// ChatCompleter 文本补全，*llm.ChatModel 实现该接口
type ChatCompleter interface {
	Complete(ctx context.Context, system, user string, opts ...model.Option) (string, error)
}

// Outline 模型生成的演示文稿大纲
type Outline struct {
	Title  string         `json:"title"`
	Slides []OutlineSlide `json:"slides"`
}

// OutlineSlide 大纲中的单页
type OutlineSlide struct {
	SlideNumber int    `json:"slide_number"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Layout      string `json:"layout"`
	ImageQuery  string `json:"image_query"`
}

const draftSystemPrompt = "You are a presentation writer. You answer with strict JSON only, no commentary."

const draftPromptTemplate = `Create the structure of a presentation about "%s" with %d slides in the "%s" style.

Requirements:
- Every slide has a title and content.
- Content is informative but short: at most 3-4 bullet points.
- The first slide is the title slide with layout "title-slide"; its content is a one-line description of the topic.
- All other slides use layout "title-content"; the last slide is a conclusion.
- Use markdown bullets ("- item") for lists.
- After the bullets of each content slide add an empty line, then 1-2 sentences with the key takeaway.
- For every slide write a short English image search query.

Return JSON in exactly this shape:
{
  "title": "Presentation title",
  "slides": [
    {"slide_number": 1, "title": "Presentation title", "content": "Short description", "layout": "title-slide", "image_query": "business presentation"},
    {"slide_number": 2, "title": "Slide title", "content": "- First point\n- Second point\n\nKey takeaway sentence.", "layout": "title-content", "image_query": "english query"}
  ]
}`

const improvePromptTemplate = `Improve the content of this presentation slide.

Title: %s
Current content:
%s

Requirements:
- Minimalist and professional style.
- Use markdown bullets ("- item"); at most 3-4 main points.
- Keep it short but informative.

Return only the improved markdown content.`

// Drafter 调用语言模型起草大纲、改写单页内容
type Drafter struct {
	chat ChatCompleter
}

// NewDrafter 创建起草器
func NewDrafter(chat ChatCompleter) *Drafter {
	return &Drafter{chat: chat}
}

// Draft 生成大纲，模型输出无法解析时返回 content.ErrBadInput
func (d *Drafter) Draft(ctx context.Context, topic string, slidesCount int, style string) (*Outline, error) {
	klog.V(6).Infof("[Drafter] 开始起草: topic=%s, slides=%d, style=%s", topic, slidesCount, style)
	reply, err := d.chat.Complete(ctx, draftSystemPrompt,
		fmt.Sprintf(draftPromptTemplate, topic, slidesCount, style),
		model.WithTemperature(0.7), model.WithMaxTokens(2000))
	if err != nil {
		klog.Errorf("[Drafter] 模型调用失败: %v", err)
		return nil, fmt.Errorf("draft outline: %w", err)
	}

	outline, err := parseOutline(reply)
	if err != nil {
		klog.Errorf("[Drafter] 大纲解析失败: %v", err)
		return nil, err
	}
	klog.V(6).Infof("[Drafter] 起草完成: title=%s, slides=%d", outline.Title, len(outline.Slides))
	return outline, nil
}

// ImproveSlide 改写单页内容，返回 markdown
func (d *Drafter) ImproveSlide(ctx context.Context, title, body string) (string, error) {
	reply, err := d.chat.Complete(ctx, "",
		fmt.Sprintf(improvePromptTemplate, title, body),
		model.WithTemperature(0.5), model.WithMaxTokens(1000))
	if err != nil {
		klog.Errorf("[Drafter] 改写失败: title=%s, error=%v", title, err)
		return "", fmt.Errorf("improve slide: %w", err)
	}
	improved := utils.ExtractMarkdown(reply)
	if improved == "" {
		return "", fmt.Errorf("%w: empty improved content", content.ErrBadInput)
	}
	return improved, nil
}

// parseOutline 从模型输出中提取并校验大纲
func parseOutline(reply string) (*Outline, error) {
	var outline Outline
	if err := json.Unmarshal([]byte(utils.ExtractJSON(reply)), &outline); err != nil {
		return nil, fmt.Errorf("%w: outline is not valid json: %v", content.ErrBadInput, err)
	}
	outline.Title = strings.TrimSpace(outline.Title)

	slides := outline.Slides[:0]
	for _, s := range outline.Slides {
		s.Title = strings.TrimSpace(s.Title)
		s.Content = strings.TrimSpace(s.Content)
		if s.Title == "" && s.Content == "" {
			continue
		}
		slides = append(slides, s)
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("%w: outline has no slides", content.ErrBadInput)
	}
	for i := range slides {
		if slides[i].SlideNumber <= 0 {
			slides[i].SlideNumber = i + 1
		}
		if slides[i].Layout == "" {
			slides[i].Layout = "title-content"
		}
	}
	outline.Slides = slides
	if outline.Title == "" {
		outline.Title = slides[0].Title
	}
	return &outline, nil
}

// toSlides 大纲转换为待保存的幻灯片
func (o *Outline) toSlides() []imodel.Slide {
	out := make([]imodel.Slide, 0, len(o.Slides))
	for _, s := range o.Slides {
		out = append(out, imodel.Slide{
			SlideNumber: s.SlideNumber,
			Title:       s.Title,
			Content:     s.Content,
			Layout:      s.Layout,
		})
	}
	return out
}

// imageQueries 非标题页的图片搜索词，按 slide_number 索引
func (o *Outline) imageQueries() map[int]string {
	queries := make(map[int]string)
	for _, s := range o.Slides {
		if s.Layout == imodel.TitleSlideLayout {
			continue
		}
		q := strings.TrimSpace(s.ImageQuery)
		if q == "" {
			q = s.Title
		}
		if q != "" {
			queries[s.SlideNumber] = q
		}
	}
	return queries
}
