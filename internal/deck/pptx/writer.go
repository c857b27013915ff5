package pptx

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	ppt "github.com/VantageDataChat/GoPPT"
	"github.com/slidesmith/backend/internal/deck/render"
	"k8s.io/klog/v2"
)

// ErrWrite 序列化失败
var ErrWrite = errors.New("failed to write pptx")

const (
	emuPerInch = 914400
	creator    = "SlideSmith"
)

func emu(inches float64) int64 {
	return int64(inches * emuPerInch)
}

// Encode 将渲染好的幻灯片序列化为 PPTX 字节，画布固定为 13.33x7.5 英寸
func Encode(title string, slides []render.Slide) ([]byte, error) {
	if len(slides) == 0 {
		return nil, fmt.Errorf("%w: no slides", ErrWrite)
	}

	p := ppt.New()
	p.GetDocumentProperties().Title = title
	p.GetDocumentProperties().Creator = creator
	p.GetLayout().SetCustomLayout(emu(render.CanvasWidth), emu(render.CanvasHeight))

	for i, s := range slides {
		var slide *ppt.Slide
		if i == 0 {
			slide = p.GetActiveSlide()
		} else {
			slide = p.CreateSlide()
		}
		for _, e := range s.Elements {
			if err := addElement(slide, e); err != nil {
				return nil, fmt.Errorf("%w: slide %d: %v", ErrWrite, i+1, err)
			}
		}
		klog.V(6).Infof("[PPTXWriter] 写入幻灯片: index=%d, layout=%s, elements=%d", i, s.Layout, len(s.Elements))
	}

	w, err := ppt.NewWriter(p, ppt.WriterPowerPoint2007)
	if err != nil {
		return nil, fmt.Errorf("%w: create writer: %v", ErrWrite, err)
	}
	var buf bytes.Buffer
	if err := w.(*ppt.PPTXWriter).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return buf.Bytes(), nil
}

// WriteFile 序列化并写入 path，失败时删除写了一半的文件
func WriteFile(path, title string, slides []render.Slide) error {
	data, err := Encode(title, slides)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		os.Remove(path)
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	klog.V(6).Infof("[PPTXWriter] 文档已写入: path=%s, slides=%d, size=%d", path, len(slides), len(data))
	return nil
}
