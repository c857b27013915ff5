package render

import (
	"fmt"

	"github.com/slidesmith/backend/internal/deck/content"
	"github.com/slidesmith/backend/internal/deck/layout"
	"github.com/slidesmith/backend/internal/deck/theme"
)

type layoutStyle struct {
	bullets bulletStyle
	align   Align
}

var layoutStyles = map[layout.Kind]layoutStyle{
	layout.ImageLeft:    {bullets: bulletNumbers, align: AlignLeft},
	layout.ImageRight:   {bullets: bulletDots, align: AlignLeft},
	layout.TextOnly:     {bullets: bulletNumbers, align: AlignCenter},
	layout.SplitContent: {bullets: bulletDots, align: AlignLeft},
	layout.ImageTop:     {bullets: bulletNumbers, align: AlignCenter},
	layout.GridLayout:   {bullets: bulletDots, align: AlignLeft},
}

// Render 按版式渲染内容页
// imagePath 为空表示没有可用图片，带图版式此时按 text_only 渲染
func Render(s content.Slide, kind layout.Kind, imagePath string, th theme.Theme) Slide {
	if cleanMarkdown(s.Title) == "" {
		s.Title = fmt.Sprintf("Slide %d", s.Index+1)
	}
	if !kind.Valid() {
		kind = layout.TextOnly
	}
	if kind.ShowsImage() && imagePath == "" {
		kind = layout.TextOnly
	}
	if kind == layout.GridLayout && !s.HasBullets() {
		kind = layout.TextOnly
	}

	out := Slide{Layout: string(kind)}
	out.add(background(th))

	switch kind {
	case layout.ImageLeft, layout.ImageRight:
		renderImageSide(&out, s, kind, imagePath, th)
	case layout.SplitContent:
		renderSplit(&out, s, imagePath, th)
	case layout.ImageTop:
		renderImageTop(&out, s, imagePath, th)
	case layout.GridLayout:
		renderGrid(&out, s, th)
	default:
		renderTextOnly(&out, s, th)
	}
	return out
}

// RenderTitle 渲染标题页：整页背景，居中的白色标题与副标题
func RenderTitle(title, subtitle string, th theme.Theme) Slide {
	out := Slide{Layout: "title"}
	out.add(Element{
		Kind:     KindShape,
		Role:     RoleBackground,
		Frame:    Rect{W: CanvasWidth, H: CanvasHeight},
		Geometry: GeomRect,
		Fill:     fill(th.TitleBackground),
	})
	out.add(Element{
		Kind:       KindText,
		Role:       RoleTitle,
		Frame:      Rect{X: 1, Y: 2, W: 11.33, H: 2},
		Paragraphs: singleParagraph(title, 54, true, theme.White, AlignCenter),
	})
	if subtitle != "" {
		out.add(Element{
			Kind:       KindText,
			Role:       RoleSubtitle,
			Frame:      Rect{X: 2, Y: 4.5, W: 9.33, H: 1.5},
			Paragraphs: singleParagraph(subtitle, 20, false, theme.White, AlignCenter),
		})
	}
	return out
}

// bodyFor 组装正文段落；bulletOnly 时只要存在列表项就不显示自由文本
func bodyFor(s content.Slide, st layoutStyle, bulletOnly bool, th theme.Theme) []Paragraph {
	body := bulletParagraphs(s.Bullets, st.bullets, st.align, th)
	if bulletOnly && s.HasBullets() {
		return body
	}
	return append(body, freeParagraphs(s.FreeLines(), st.align, bodyFontSize, th.BodyText())...)
}

func renderTextOnly(out *Slide, s content.Slide, th theme.Theme) {
	st := layoutStyles[layout.TextOnly]
	out.add(circle(1, 1, 0.3, th.Accent))
	out.add(circle(11.5, 6, 0.4, th.Decor2))
	contentBlock(out, s.Title, bodyFor(s, st, false, th), 2, 9.33, st.align, th)
}

func renderImageSide(out *Slide, s content.Slide, kind layout.Kind, imagePath string, th theme.Theme) {
	st := layoutStyles[kind]
	if kind == layout.ImageLeft {
		imageFrame(out, Rect{X: 0.4, Y: 1.4, W: 5.5, H: 4.2}, Rect{X: 0.55, Y: 1.55, W: 5.2, H: 3.9}, imagePath, theme.ContainerLine)
		out.add(circle(5.65, 1.35, 0.25, th.Decor1))
		out.add(circle(0.35, 5.25, 0.2, th.Decor2))
		contentBlock(out, s.Title, bodyFor(s, st, true, th), 6.7, 6.1, st.align, th)
		return
	}
	imageFrame(out, Rect{X: 7.6, Y: 1.4, W: 5.5, H: 4.2}, Rect{X: 7.75, Y: 1.55, W: 5.2, H: 3.9}, imagePath, theme.ContainerLine)
	out.add(circle(12.65, 1.35, 0.25, th.Decor1))
	out.add(circle(7.55, 5.25, 0.2, th.Decor2))
	contentBlock(out, s.Title, bodyFor(s, st, true, th), 1, 6.1, st.align, th)
}

func renderImageTop(out *Slide, s content.Slide, imagePath string, th theme.Theme) {
	st := layoutStyles[layout.ImageTop]
	imageFrame(out, Rect{X: 0, Y: 0, W: CanvasWidth, H: 3.2}, Rect{X: 0.1, Y: 0.1, W: CanvasWidth - 0.2, H: 3.0}, imagePath, theme.ContainerLine)
	out.add(circle(12.6, 2.9, 0.3, th.Decor1))
	out.add(circle(0.4, 2.95, 0.2, th.Decor2))

	left, top, width := 1.0, 3.4, 11.33
	out.add(Element{
		Kind:       KindText,
		Role:       RoleTitle,
		Frame:      Rect{X: left, Y: top, W: width, H: 0.8},
		Paragraphs: singleParagraph(s.Title, 32, true, th.TitleText(), st.align),
	})
	lineLeft := left
	if st.align != AlignLeft {
		lineLeft = 6
	}
	out.add(accentBar(Rect{X: lineLeft, Y: top + 0.9, W: accentLineWidth, H: accentLineHeight}, th))
	if body := bodyFor(s, st, true, th); len(body) > 0 {
		out.add(Element{
			Kind:       KindText,
			Role:       RoleBody,
			Frame:      Rect{X: left, Y: top + 1.2, W: width, H: 3.3},
			Paragraphs: body,
		})
	}
}

func renderSplit(out *Slide, s content.Slide, imagePath string, th theme.Theme) {
	st := layoutStyles[layout.SplitContent]
	out.add(Element{
		Kind:       KindText,
		Role:       RoleTitle,
		Frame:      Rect{X: 0.5, Y: 0.5, W: 12.33, H: 1},
		Paragraphs: singleParagraph(s.Title, 28, true, th.TitleText(), AlignCenter),
	})
	out.add(accentBar(Rect{X: 6, Y: 1.3, W: 1.33, H: accentLineHeight}, th))

	if s.HasBullets() {
		items := s.Bullets
		if len(items) > 4 {
			items = items[:4]
		}
		var paras []Paragraph
		for _, p := range bulletParagraphs(items, st.bullets, st.align, th) {
			p.Runs[0].Size = 12
			p.Runs[1].Size = 12
			p.Runs[2].Size = 13
			paras = append(paras, p)
		}
		out.add(Element{Kind: KindText, Role: RoleBullets, Frame: Rect{X: 0.3, Y: 2, W: 3.8, H: 4}, Paragraphs: paras})
	}

	imageFrame(out, Rect{X: 4.5, Y: 2, W: 4.33, H: 4}, Rect{X: 4.65, Y: 2.15, W: 4.03, H: 3.7}, imagePath, theme.RGB{R: 209, G: 213, B: 219})
	out.add(circle(8.6, 1.85, 0.22, th.Decor1))
	out.add(circle(4.35, 5.8, 0.18, th.Decor2))

	panel, line, heading, detail := theme.RGB{R: 249, G: 250, B: 251}, theme.ContainerLine, theme.DefaultTitle, theme.RGB{R: 75, G: 85, B: 99}
	if th.TextColor != nil {
		panel, line, heading, detail = theme.RGB{R: 31, G: 41, B: 55}, theme.DefaultBody, th.TitleText(), th.BodyText()
	}
	paras := []Paragraph{
		{Runs: []Run{{Text: "Key takeaways", Size: 16, Bold: true, Color: heading}}, Align: AlignLeft},
		{Runs: []Run{{Text: cleanMarkdown(takeaway(s)), Size: 13, Color: detail}}, Align: AlignLeft},
		{Runs: []Run{{Text: "● ● ●", Size: 12, Color: th.Accent}}, Align: AlignLeft},
	}
	out.add(Element{
		Kind:          KindText,
		Role:          RoleTakeaways,
		Frame:         Rect{X: 9.2, Y: 2, W: 3.6, H: 4},
		Geometry:      GeomRect,
		Fill:          fill(panel),
		Stroke:        &Stroke{Color: line, Width: 1},
		Paragraphs:    paras,
		Embellishment: []Embellishment{RoundedCorners},
	})
}

// takeaway 自由文本最后一个非列表行，没有时使用通用结论
func takeaway(s content.Slide) string {
	lines := s.FreeLines()
	for i := len(lines) - 1; i >= 0; i-- {
		if l := lines[i]; l != "" && l[0] != '-' {
			return l
		}
	}
	return takeawaysFallback
}

var gridPositions = [4][2]float64{{1, 2.3}, {7.3, 2.3}, {1, 4.8}, {7.3, 4.8}}

func renderGrid(out *Slide, s content.Slide, th theme.Theme) {
	st := layoutStyles[layout.GridLayout]
	out.add(Element{
		Kind:       KindText,
		Role:       RoleTitle,
		Frame:      Rect{X: 1, Y: 0.5, W: 11.33, H: 1},
		Paragraphs: singleParagraph(s.Title, titleFontSize, true, th.TitleText(), AlignCenter),
	})
	out.add(accentBar(Rect{X: 5.5, Y: 1.6, W: 2.33, H: accentLineHeight}, th))

	boxFill := theme.RGB{R: 248, G: 250, B: 252}
	if th.TextColor != nil {
		boxFill = theme.RGB{R: 31, G: 41, B: 55}
	}
	for i, item := range s.Bullets {
		if i >= len(gridPositions) {
			break
		}
		x, y := gridPositions[i][0], gridPositions[i][1]
		out.add(Element{
			Kind:          KindShape,
			Role:          RoleGridBox,
			Frame:         Rect{X: x, Y: y, W: 5.5, H: 2.2},
			Geometry:      GeomRect,
			Fill:          fill(boxFill),
			Stroke:        &Stroke{Color: th.Accent, Width: 2},
			Embellishment: []Embellishment{RoundedCorners},
		})
		out.add(Element{
			Kind:       KindShape,
			Role:       RoleBadge,
			Frame:      Rect{X: x + 0.3, Y: y + 0.3, W: 0.5, H: 0.5},
			Geometry:   GeomEllipse,
			Fill:       fill(th.Accent),
			Paragraphs: singleParagraph(fmt.Sprintf("%d", i+1), 14, true, theme.White, AlignCenter),
		})
		out.add(Element{
			Kind:       KindText,
			Role:       RoleBullets,
			Frame:      Rect{X: x + 1.0, Y: y + 0.25, W: 4.3, H: 1.7},
			Paragraphs: singleParagraph(item, 16, false, th.BodyText(), st.align),
		})
	}
}
