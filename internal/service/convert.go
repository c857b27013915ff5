package service

import (
	"fmt"
	"strings"

	"github.com/slidesmith/backend/internal/deck/content"
	"github.com/slidesmith/backend/internal/model"
)

// slideSpecs 把已保存的幻灯片转换为渲染用的模板
// 标题页为 title + subtitle；其余页 "-" 开头的行为列表项，其它非空行为正文
func slideSpecs(title string, slides []model.Slide) *content.Template {
	tpl := &content.Template{Title: title}
	for _, s := range slides {
		spec := content.SlideSpec{
			ID:         fmt.Sprintf("slide-%d", s.ID),
			LayoutHint: s.Layout,
			Title:      s.Title,
			Number:     s.SlideNumber,
			HasNumber:  true,
		}

		if s.Layout == model.TitleSlideLayout {
			spec.Fields = append(spec.Fields, content.TextField("title", s.Title))
			if sub := strings.TrimSpace(s.Content); sub != "" {
				spec.Fields = append(spec.Fields, content.TextField("subtitle", sub))
			}
			tpl.Slides = append(tpl.Slides, spec)
			continue
		}

		bullets, text := splitContent(s.Content)
		spec.Fields = append(spec.Fields, content.TextField("title", s.Title))
		if len(bullets) > 0 {
			spec.Fields = append(spec.Fields, content.ListField("bullets", bullets))
		}
		if len(text) > 0 {
			spec.Fields = append(spec.Fields, content.TextField("text", strings.Join(text, "\n")))
		}
		if s.ImageURL != "" {
			spec.Fields = append(spec.Fields, content.ImageField("image", s.ImageURL, "", s.ImageAlt))
		}
		tpl.Slides = append(tpl.Slides, spec)
	}
	return tpl
}

// splitContent 拆分 markdown 内容为列表项与正文行
func splitContent(body string) (bullets, text []string) {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "-") {
			if item := strings.TrimSpace(strings.TrimPrefix(line, "-")); item != "" {
				bullets = append(bullets, item)
			}
			continue
		}
		text = append(text, line)
	}
	return bullets, text
}

// templateSlides 把模板转换为待保存的幻灯片，并返回需要搜索图片的页（按 slide_number 索引）
func templateSlides(tpl *content.Template) ([]model.Slide, map[int]string) {
	var out []model.Slide
	queries := make(map[int]string)
	for i, spec := range tpl.Slides {
		cs := content.ClassifySlide(i, spec)
		if cs.Role == content.RoleSkip {
			continue
		}
		number := len(out) + 1
		if cs.Role == content.RoleTitle {
			out = append(out, model.Slide{
				SlideNumber: number,
				Title:       cs.Title,
				Content:     cs.Subtitle,
				Layout:      model.TitleSlideLayout,
			})
			continue
		}

		var lines []string
		for _, b := range cs.Bullets {
			lines = append(lines, "- "+b)
		}
		if free := cs.FreeLines(); len(free) > 0 {
			if len(lines) > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, free...)
		}
		slide := model.Slide{
			SlideNumber: number,
			Title:       cs.Title,
			Content:     strings.Join(lines, "\n"),
			Layout:      "title-content",
		}
		if cs.Image != nil {
			slide.ImageURL = cs.Image.URL
			slide.ImageAlt = cs.Image.Title
			if slide.ImageURL == "" {
				queries[number] = cs.Image.Query
			}
		}
		out = append(out, slide)
	}
	return out, queries
}
