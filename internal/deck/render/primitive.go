package render

import (
	"strings"

	"github.com/slidesmith/backend/internal/deck/theme"
)

// 画布尺寸（英寸），16:9
const (
	CanvasWidth  = 13.33
	CanvasHeight = 7.5
)

// Rect 以英寸为单位的绝对位置
type Rect struct {
	X, Y, W, H float64
}

// ElementKind 图元类型
type ElementKind int

const (
	KindText ElementKind = iota
	KindShape
	KindPicture
)

// Geometry 形状几何
type Geometry int

const (
	GeomRect Geometry = iota
	GeomEllipse
)

// Align 段落水平对齐
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Role 图元在版式中的用途
type Role string

const (
	RoleBackground Role = "background"
	RoleTitle      Role = "title"
	RoleSubtitle   Role = "subtitle"
	RoleAccent     Role = "accent"
	RoleBullets    Role = "bullets"
	RoleBody       Role = "body"
	RoleFrame      Role = "image_frame"
	RoleImage      Role = "image"
	RoleDecor      Role = "decor"
	RoleTakeaways  Role = "takeaways"
	RoleGridBox    Role = "grid_box"
	RoleBadge      Role = "badge"
)

// Embellishment 可选的装饰步骤，底层库不支持时跳过
type Embellishment int

const (
	RoundedCorners Embellishment = iota
	DropShadow
)

func (e Embellishment) String() string {
	switch e {
	case RoundedCorners:
		return "rounded_corners"
	case DropShadow:
		return "drop_shadow"
	}
	return "unknown"
}

// Run 一段同样式文字
type Run struct {
	Text  string
	Size  int
	Bold  bool
	Color theme.RGB
}

// Paragraph 段落
type Paragraph struct {
	Runs  []Run
	Align Align
}

// Text 段落纯文本
func (p Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Stroke 描边，宽度单位为磅
type Stroke struct {
	Color theme.RGB
	Width float64
}

// Element 绝对定位的图元
type Element struct {
	Kind          ElementKind
	Role          Role
	Frame         Rect
	Geometry      Geometry
	Fill          *theme.RGB
	Stroke        *Stroke
	Paragraphs    []Paragraph
	ImagePath     string
	Embellishment []Embellishment
}

// Slide 渲染结果
type Slide struct {
	Layout   string
	Elements []Element
}

// Find 按用途查找图元
func (s Slide) Find(role Role) []Element {
	var out []Element
	for _, e := range s.Elements {
		if e.Role == role {
			out = append(out, e)
		}
	}
	return out
}

// Texts 返回所有段落文本，按图元顺序
func (s Slide) Texts() []string {
	var out []string
	for _, e := range s.Elements {
		for _, p := range e.Paragraphs {
			out = append(out, p.Text())
		}
	}
	return out
}

func (s *Slide) add(e Element) {
	s.Elements = append(s.Elements, e)
}

func fill(c theme.RGB) *theme.RGB {
	return &c
}
