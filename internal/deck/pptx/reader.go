package pptx

import (
	"fmt"
	"strings"

	ppt "github.com/VantageDataChat/GoPPT"
)

// SlideTexts 读取文档每页文本框中的文字，用于校验导出结果
func SlideTexts(path string) ([][]string, error) {
	pres, err := ppt.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read pptx: %w", err)
	}
	var out [][]string
	for _, slide := range pres.GetAllSlides() {
		var texts []string
		for _, rt := range slide.GetTextBoxes() {
			for _, para := range rt.GetParagraphs() {
				var sb strings.Builder
				for _, elem := range para.GetElements() {
					if run, ok := elem.(*ppt.TextRun); ok {
						sb.WriteString(run.GetText())
					}
				}
				if sb.Len() > 0 {
					texts = append(texts, sb.String())
				}
			}
		}
		out = append(out, texts)
	}
	return out, nil
}
