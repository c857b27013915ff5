package pptx

import (
	"fmt"
	"os"

	ppt "github.com/VantageDataChat/GoPPT"
	"github.com/gabriel-vasile/mimetype"
	"github.com/slidesmith/backend/internal/deck/render"
	"github.com/slidesmith/backend/internal/deck/theme"
)

// 1 磅 = 12700 EMU
const emuPerPoint = 12700

func rgb(c theme.RGB) ppt.Color {
	return ppt.NewColor(c.ARGB())
}

func addElement(slide *ppt.Slide, e render.Element) error {
	if e.Kind == render.KindPicture {
		return addPicture(slide, e)
	}
	if e.Fill != nil || e.Stroke != nil {
		addShape(slide, e)
	}
	if len(e.Paragraphs) > 0 {
		addText(slide, e.Frame, e.Paragraphs)
	}
	return nil
}

// addShape 填充与描边由 AutoShape 承载，文字另起一层文本框叠在上面
func addShape(slide *ppt.Slide, e render.Element) {
	shape := slide.CreateAutoShape()
	if e.Geometry == render.GeomEllipse {
		shape.SetAutoShapeType(ppt.AutoShapeEllipse)
	}
	shape.SetName(string(e.Role))
	shape.SetPosition(emu(e.Frame.X), emu(e.Frame.Y))
	shape.SetSize(emu(e.Frame.W), emu(e.Frame.H))
	if e.Fill != nil {
		shape.SetSolidFill(rgb(*e.Fill))
	}
	if e.Stroke != nil && e.Stroke.Width > 0 {
		shape.GetBorder().SetSolidFill(rgb(e.Stroke.Color)).SetWidth(int(e.Stroke.Width * emuPerPoint))
	}
	embellish(shape, e.Embellishment)
}

func addText(slide *ppt.Slide, r render.Rect, paras []render.Paragraph) {
	shape := slide.CreateRichTextShape()
	shape.SetOffsetX(emu(r.X)).SetOffsetY(emu(r.Y))
	shape.SetWidth(emu(r.W)).SetHeight(emu(r.H))
	for i, p := range paras {
		if i > 0 {
			shape.CreateParagraph()
		}
		for _, run := range p.Runs {
			tr := shape.CreateTextRun(run.Text)
			tr.GetFont().SetSize(run.Size).SetColor(rgb(run.Color))
			if run.Bold {
				tr.GetFont().SetBold(true)
			}
		}
		switch p.Align {
		case render.AlignCenter:
			shape.GetActiveParagraph().GetAlignment().SetHorizontal(ppt.HorizontalCenter)
		case render.AlignRight:
			shape.GetActiveParagraph().GetAlignment().SetHorizontal(ppt.HorizontalRight)
		}
	}
}

func addPicture(slide *ppt.Slide, e render.Element) error {
	data, err := os.ReadFile(e.ImagePath)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	img := slide.CreateDrawingShape()
	img.SetImageData(data, mimetype.Detect(data).String())
	img.SetName(string(e.Role))
	img.SetOffsetX(emu(e.Frame.X)).SetOffsetY(emu(e.Frame.Y))
	img.SetWidth(emu(e.Frame.W)).SetHeight(emu(e.Frame.H))
	embellish(img, e.Embellishment)
	return nil
}
