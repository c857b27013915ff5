package theme

import (
	"fmt"
	"strings"
)

// RGB 颜色
type RGB struct {
	R, G, B uint8
}

// Hex 返回 RRGGBB
func (c RGB) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// ARGB 返回不透明的 AARRGGBB，供 PPTX 写入使用
func (c RGB) ARGB() string {
	return "FF" + c.Hex()
}

var (
	White         = RGB{255, 255, 255}
	DefaultTitle  = RGB{17, 24, 39}
	DefaultBody   = RGB{55, 65, 81}
	ContainerLine = RGB{229, 231, 235}
)

// Theme 一份文档的配色
type Theme struct {
	Name              string
	TitleBackground   RGB
	Accent            RGB
	Decor1            RGB
	Decor2            RGB
	ContentBackground *RGB
	TextColor         *RGB
}

// Background 内容页背景色
func (t Theme) Background() RGB {
	if t.ContentBackground != nil {
		return *t.ContentBackground
	}
	return White
}

// TitleText 标题文字颜色
func (t Theme) TitleText() RGB {
	if t.TextColor != nil {
		return *t.TextColor
	}
	return DefaultTitle
}

// BodyText 正文文字颜色
func (t Theme) BodyText() RGB {
	if t.TextColor != nil {
		return *t.TextColor
	}
	return DefaultBody
}

const (
	Minimal      = "minimal"
	Professional = "professional"
	Creative     = "creative"
	Academic     = "academic"
	Dark         = "dark"
)

var darkSurface = RGB{17, 24, 39}
var darkText = RGB{243, 244, 246}

var table = map[string]Theme{
	Minimal: {
		Name:            Minimal,
		TitleBackground: RGB{99, 102, 241},
		Accent:          RGB{99, 102, 241},
		Decor1:          RGB{99, 102, 241},
		Decor2:          RGB{147, 51, 234},
	},
	Professional: {
		Name:            Professional,
		TitleBackground: RGB{30, 41, 59},
		Accent:          RGB{37, 99, 235},
		Decor1:          RGB{37, 99, 235},
		Decor2:          RGB{59, 130, 246},
	},
	Creative: {
		Name:            Creative,
		TitleBackground: RGB{147, 51, 234},
		Accent:          RGB{236, 72, 153},
		Decor1:          RGB{147, 51, 234},
		Decor2:          RGB{236, 72, 153},
	},
	Academic: {
		Name:            Academic,
		TitleBackground: RGB{4, 120, 87},
		Accent:          RGB{5, 150, 105},
		Decor1:          RGB{5, 150, 105},
		Decor2:          RGB{16, 185, 129},
	},
	Dark: {
		Name:              Dark,
		TitleBackground:   darkSurface,
		Accent:            RGB{34, 211, 238},
		Decor1:            RGB{34, 211, 238},
		Decor2:            RGB{6, 182, 212},
		ContentBackground: &darkSurface,
		TextColor:         &darkText,
	},
}

// Lookup 按名称取主题，未知名称回退到 minimal
func Lookup(name string) Theme {
	if t, ok := table[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t
	}
	return table[Minimal]
}

// Names 所有主题名称
func Names() []string {
	return []string{Minimal, Professional, Creative, Academic, Dark}
}
