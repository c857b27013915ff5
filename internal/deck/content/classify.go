package content

import (
	"fmt"
	"strings"
)

// Kind 字段内容形态
type Kind int

const (
	KindUnknown Kind = iota
	KindTitle
	KindSubtitle
	KindBulletList
	KindFreeText
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindSubtitle:
		return "subtitle"
	case KindBulletList:
		return "bullet_list"
	case KindFreeText:
		return "free_text"
	case KindImage:
		return "image"
	}
	return "unknown"
}

// ImageRef 图片引用，URL 与 Query 至少一个非空
type ImageRef struct {
	URL   string
	Query string
	Title string
}

// Classified 分类后的字段
type Classified struct {
	Key   string
	Kind  Kind
	Text  string
	Items []string
	Image *ImageRef
}

// Role 幻灯片渲染路径
type Role int

const (
	RoleSkip Role = iota
	RoleTitle
	RoleContent
)

// Slide 分类后的幻灯片，供渲染器使用
type Slide struct {
	Index    int
	Title    string
	Subtitle string
	Bullets  []string
	FreeText []string
	Image    *ImageRef
	Role     Role
}

// HasBullets 是否有列表项
func (s Slide) HasBullets() bool { return len(s.Bullets) > 0 }

// HasFreeText 是否有自由文本
func (s Slide) HasFreeText() bool { return len(s.FreeText) > 0 }

// FreeLines 自由文本按行拆分，忽略空行
func (s Slide) FreeLines() []string {
	var lines []string
	for _, block := range s.FreeText {
		for _, line := range strings.Split(block, "\n") {
			if l := strings.TrimSpace(line); l != "" {
				lines = append(lines, l)
			}
		}
	}
	return lines
}

// Classify 按优先级为每个字段打标签，无法识别的字段不出现在结果中
func Classify(fields []Field) []Classified {
	out := make([]Classified, 0, len(fields))
	for _, f := range fields {
		c := classifyField(f)
		if c.Kind == KindUnknown {
			continue
		}
		out = append(out, c)
	}
	return out
}

func classifyField(f Field) Classified {
	key := strings.ToLower(strings.TrimSpace(f.Key))
	c := Classified{Key: f.Key}

	if img := imageOf(f); img != nil {
		c.Kind = KindImage
		c.Image = img
		return c
	}

	if key == "subtitle" || key == "title" || f.Type == "title" {
		text := titleText(f.Value)
		if text == "" {
			return c
		}
		c.Text = text
		if key == "subtitle" {
			c.Kind = KindSubtitle
		} else {
			c.Kind = KindTitle
		}
		return c
	}

	if items, ok := toSequence(f.Value); ok {
		if len(items) == 0 {
			return c
		}
		c.Kind = KindBulletList
		c.Items = items
		return c
	}

	if s, ok := f.Value.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return c
		}
		if f.Type == "bullet" || f.Type == "list" {
			c.Kind = KindBulletList
			c.Items = splitBulletLines(s)
			return c
		}
		c.Kind = KindFreeText
		c.Text = s
		return c
	}
	return c
}

// imageOf 识别图片字段：type 为 image 或值对象携带 url/query
func imageOf(f Field) *ImageRef {
	switch v := f.Value.(type) {
	case Object:
		if f.Type != "image" && !v.Has("url") && !v.Has("query") {
			return nil
		}
		ref := &ImageRef{
			URL:   strings.TrimSpace(v.String("url")),
			Query: strings.TrimSpace(v.String("query")),
			Title: strings.TrimSpace(v.String("title")),
		}
		if ref.URL == "" && ref.Query == "" {
			return nil
		}
		return ref
	case string:
		if f.Type != "image" {
			return nil
		}
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
			return &ImageRef{URL: s}
		}
		return &ImageRef{Query: s}
	}
	return nil
}

func titleText(v any) string {
	if s, ok := scalarString(v); ok {
		return strings.TrimSpace(s)
	}
	if items, ok := toSequence(v); ok {
		return strings.Join(items, " ")
	}
	return ""
}

func splitBulletLines(s string) []string {
	var items []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "-•*"))
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

// ClassifySlide 分类单页幻灯片并决定渲染路径
// index 为该页在模板中的位置（从 0 开始）
func ClassifySlide(index int, spec SlideSpec) Slide {
	s := Slide{Index: index}
	var hasContent bool
	for _, c := range Classify(spec.Fields) {
		switch c.Kind {
		case KindTitle:
			if s.Title == "" {
				s.Title = c.Text
			}
		case KindSubtitle:
			if s.Subtitle == "" {
				s.Subtitle = c.Text
			}
		case KindBulletList:
			s.Bullets = append(s.Bullets, c.Items...)
			hasContent = true
		case KindFreeText:
			s.FreeText = append(s.FreeText, c.Text)
			hasContent = true
		case KindImage:
			if s.Image == nil {
				s.Image = c.Image
			}
			hasContent = true
		}
	}

	switch {
	case hasContent:
		s.Role = RoleContent
	case s.Title != "" || s.Subtitle != "":
		s.Role = RoleTitle
	default:
		return s
	}
	if s.Title == "" {
		s.Title = spec.Title
	}
	if s.Title == "" {
		s.Title = fmt.Sprintf("Slide %d", index+1)
	}
	return s
}
