package render

import (
	"fmt"
	"strings"

	"github.com/slidesmith/backend/internal/deck/theme"
)

type bulletStyle int

const (
	bulletNumbers bulletStyle = iota
	bulletDots
)

const (
	bulletDot         = "●"
	titleFontSize     = 36
	bodyFontSize      = 18
	numberFontSize    = 16
	dotFontSize       = 20
	accentLineWidth   = 1.2
	accentLineHeight  = 0.06
	takeawaysFallback = "Strategic conclusions and key recommendations for this section."
)

var markdownMarkers = strings.NewReplacer("**", "", "*", "", "###", "", "##", "", "#", "")

// cleanMarkdown 去掉强调与标题标记
func cleanMarkdown(s string) string {
	return strings.TrimSpace(markdownMarkers.Replace(s))
}

// bulletParagraphs 列表项段落，编号或圆点前缀使用强调色
func bulletParagraphs(items []string, style bulletStyle, align Align, th theme.Theme) []Paragraph {
	paras := make([]Paragraph, 0, len(items))
	n := 0
	for _, item := range items {
		text := cleanMarkdown(item)
		if text == "" {
			continue
		}
		n++
		var runs []Run
		if style == bulletNumbers {
			runs = append(runs,
				Run{Text: fmt.Sprintf("%02d", n), Size: numberFontSize, Bold: true, Color: th.Accent},
				Run{Text: ".  ", Size: numberFontSize, Color: th.Accent},
			)
		} else {
			runs = append(runs,
				Run{Text: bulletDot, Size: dotFontSize, Color: th.Accent},
				Run{Text: "  ", Size: dotFontSize, Color: th.Accent},
			)
		}
		runs = append(runs, Run{Text: text, Size: bodyFontSize, Color: th.BodyText()})
		paras = append(paras, Paragraph{Runs: runs, Align: align})
	}
	return paras
}

// freeParagraphs 自由文本每个非空行一个段落，无前缀
func freeParagraphs(lines []string, align Align, size int, color theme.RGB) []Paragraph {
	paras := make([]Paragraph, 0, len(lines))
	for _, line := range lines {
		text := cleanMarkdown(line)
		if text == "" {
			continue
		}
		paras = append(paras, Paragraph{Runs: []Run{{Text: text, Size: size, Color: color}}, Align: align})
	}
	return paras
}

func singleParagraph(text string, size int, bold bool, color theme.RGB, align Align) []Paragraph {
	return []Paragraph{{Runs: []Run{{Text: cleanMarkdown(text), Size: size, Bold: bold, Color: color}}, Align: align}}
}

// contentBlock 标题、强调线与正文的通用区块
// 正文区域位于 y=3.0，高 4.0
func contentBlock(slide *Slide, title string, body []Paragraph, left, width float64, align Align, th theme.Theme) {
	slide.add(Element{
		Kind:       KindText,
		Role:       RoleTitle,
		Frame:      Rect{X: left, Y: 1.0, W: width, H: 1.5},
		Paragraphs: singleParagraph(title, titleFontSize, true, th.TitleText(), align),
	})

	lineLeft := left
	if align != AlignLeft {
		lineLeft = left + width/2 - accentLineWidth/2
	}
	slide.add(accentBar(Rect{X: lineLeft, Y: 2.6, W: accentLineWidth, H: accentLineHeight}, th))

	if len(body) == 0 {
		return
	}
	slide.add(Element{
		Kind:       KindText,
		Role:       RoleBody,
		Frame:      Rect{X: left, Y: 3.0, W: width, H: 4.0},
		Paragraphs: body,
	})
}

func accentBar(r Rect, th theme.Theme) Element {
	return Element{Kind: KindShape, Role: RoleAccent, Frame: r, Geometry: GeomRect, Fill: fill(th.Accent)}
}

func background(th theme.Theme) Element {
	return Element{
		Kind:     KindShape,
		Role:     RoleBackground,
		Frame:    Rect{W: CanvasWidth, H: CanvasHeight},
		Geometry: GeomRect,
		Fill:     fill(th.Background()),
	}
}

func circle(x, y, size float64, c theme.RGB) Element {
	return Element{Kind: KindShape, Role: RoleDecor, Frame: Rect{X: x, Y: y, W: size, H: size}, Geometry: GeomEllipse, Fill: fill(c)}
}

// imageFrame 带边框的图片容器与图片本身
func imageFrame(slide *Slide, container, picture Rect, path string, border theme.RGB) {
	slide.add(Element{
		Kind:          KindShape,
		Role:          RoleFrame,
		Frame:         container,
		Geometry:      GeomRect,
		Fill:          fill(theme.White),
		Stroke:        &Stroke{Color: border, Width: 1},
		Embellishment: []Embellishment{RoundedCorners},
	})
	slide.add(Element{
		Kind:          KindPicture,
		Role:          RoleImage,
		Frame:         picture,
		ImagePath:     path,
		Embellishment: []Embellishment{DropShadow},
	})
}
