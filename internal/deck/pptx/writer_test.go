package pptx

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	ppt "github.com/VantageDataChat/GoPPT"
	"github.com/slidesmith/backend/internal/deck/content"
	"github.com/slidesmith/backend/internal/deck/layout"
	"github.com/slidesmith/backend/internal/deck/render"
	"github.com/slidesmith/backend/internal/deck/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDeck() []render.Slide {
	th := theme.Lookup(theme.Professional)
	s := content.Slide{
		Title:    "Roadmap",
		Bullets:  []string{"Plan", "Build", "Ship"},
		FreeText: []string{"Wrap up"},
		Role:     content.RoleContent,
	}
	return []render.Slide{
		render.RenderTitle("Quarterly Review", "Q3", th),
		render.Render(s, layout.TextOnly, "", th),
		render.Render(s, layout.GridLayout, "", th),
	}
}

func zipEntries(t *testing.T, data []byte) map[string][]byte {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out[f.Name] = body
	}
	return out
}

func TestEncodeWidescreenCanvas(t *testing.T) {
	data, err := Encode("Quarterly Review", sampleDeck())
	require.NoError(t, err)

	entries := zipEntries(t, data)
	xml, ok := entries["ppt/presentation.xml"]
	require.True(t, ok)
	assert.Regexp(t, regexp.MustCompile(`sldSz cx="12188952" cy="6858000"`), string(xml))

	slides := 0
	for name := range entries {
		if regexp.MustCompile(`^ppt/slides/slide\d+\.xml$`).MatchString(name) {
			slides++
		}
	}
	assert.Equal(t, 3, slides)
}

func TestEncodeRejectsEmptyDeck(t *testing.T) {
	_, err := Encode("x", nil)
	assert.ErrorIs(t, err, ErrWrite)
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.pptx")
	require.NoError(t, WriteFile(path, "Quarterly Review", sampleDeck()))

	texts, err := SlideTexts(path)
	require.NoError(t, err)
	require.Len(t, texts, 3)
	assert.Contains(t, texts[0], "Quarterly Review")
	assert.Contains(t, texts[0], "Q3")
	assert.Contains(t, strings.Join(texts[1], "\n"), "Roadmap")
	assert.Contains(t, strings.Join(texts[1], "\n"), "Wrap up")
	assert.Contains(t, strings.Join(texts[2], "\n"), "Ship")
}

func writePNG(t *testing.T) string {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "pic.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestEncodeNativeShapes(t *testing.T) {
	data, err := Encode("Quarterly Review", sampleDeck())
	require.NoError(t, err)
	entries := zipEntries(t, data)

	grid := string(entries["ppt/slides/slide3.xml"])
	assert.Equal(t, 3, strings.Count(grid, `prst="roundRect"`))
	assert.Equal(t, 3, strings.Count(grid, `prst="ellipse"`))
	assert.Contains(t, grid, `<a:ln w="25400"`)

	text := string(entries["ppt/slides/slide2.xml"])
	assert.Equal(t, 2, strings.Count(text, `prst="ellipse"`))
	assert.NotContains(t, text, "roundRect")
}

func TestEncodeImageEmbellishments(t *testing.T) {
	th := theme.Lookup(theme.Professional)
	s := content.Slide{Title: "Pic", Bullets: []string{"a", "b"}, Role: content.RoleContent}
	slides := []render.Slide{render.Render(s, layout.ImageLeft, writePNG(t), th)}

	data, err := Encode("x", slides)
	require.NoError(t, err)
	xml := string(zipEntries(t, data)["ppt/slides/slide1.xml"])
	assert.Contains(t, xml, `prst="roundRect"`)
	assert.Contains(t, xml, "<a:outerShdw")
	assert.Contains(t, xml, `dir="2700000"`)
}

func TestEncodeMissingPicture(t *testing.T) {
	th := theme.Lookup("")
	s := content.Slide{Title: "Pic", Bullets: []string{"a"}, Role: content.RoleContent}
	slides := []render.Slide{render.Render(s, layout.ImageLeft, "/nonexistent/picture.jpg", th)}

	path := filepath.Join(t.TempDir(), "deck.pptx")
	err := WriteFile(path, "x", slides)
	assert.ErrorIs(t, err, ErrWrite)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestTryEmbellish(t *testing.T) {
	slide := ppt.New().GetActiveSlide()

	box := slide.CreateAutoShape()
	require.NoError(t, tryEmbellish(box, render.RoundedCorners))
	assert.Equal(t, ppt.AutoShapeRoundedRect, box.GetAutoShapeType())

	dot := slide.CreateAutoShape()
	dot.SetAutoShapeType(ppt.AutoShapeEllipse)
	assert.ErrorIs(t, tryEmbellish(dot, render.RoundedCorners), errUnsupported)
	assert.Equal(t, ppt.AutoShapeEllipse, dot.GetAutoShapeType())

	img := slide.CreateDrawingShape()
	require.NoError(t, tryEmbellish(img, render.DropShadow))
	shadow := img.GetShadow()
	assert.True(t, shadow.Visible)
	assert.Equal(t, shadowDirection, shadow.Direction)
	assert.Equal(t, shadowAlpha, shadow.Alpha)

	text := slide.CreateRichTextShape()
	assert.ErrorIs(t, tryEmbellish(text, render.DropShadow), errUnsupported)
	assert.ErrorIs(t, tryEmbellish(text, render.RoundedCorners), errUnsupported)
	assert.ErrorIs(t, tryEmbellish(box, render.Embellishment(99)), errUnsupported)
}

func TestTryEmbellishRecoversPanic(t *testing.T) {
	var img *ppt.DrawingShape
	err := tryEmbellish(img, render.DropShadow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}
