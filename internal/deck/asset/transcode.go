package asset

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupported 不支持的图片格式
var ErrUnsupported = errors.New("unsupported image content")

// jpegQuality 转码为 JPEG 时的质量
const jpegQuality = 90

var decodableMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
	"image/tiff": true,
}

// normalize 将下载的字节归一化为可嵌入的图片
// JPEG 与不透明 PNG 原样返回，其余可解码格式在白底上压平后转为 JPEG
// 返回数据与扩展名
func normalize(data []byte) ([]byte, string, error) {
	mime := mimetype.Detect(data).String()
	if !decodableMIMEs[mime] {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupported, mime)
	}

	if mime == "image/jpeg" {
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		return data, "jpg", nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	if mime == "image/png" && isOpaque(img) {
		return data, "png", nil
	}

	out, err := flattenToJPEG(img)
	if err != nil {
		return nil, "", err
	}
	return out, "jpg", nil
}

type opaquer interface {
	Opaque() bool
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(opaquer); ok {
		return o.Opaque()
	}
	return false
}

// flattenToJPEG 在白色背景上合成后编码为 JPEG
func flattenToJPEG(img image.Image) ([]byte, error) {
	b := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
