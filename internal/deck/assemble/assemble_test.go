package assemble

import (
	"archive/zip"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/slidesmith/backend/internal/deck/asset"
	"github.com/slidesmith/backend/internal/deck/content"
	"github.com/slidesmith/backend/internal/deck/layout"
	"github.com/slidesmith/backend/internal/deck/pptx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, js string) *content.Template {
	tpl, err := content.ParseTemplate([]byte(js))
	require.NoError(t, err)
	return tpl
}

func texts(t *testing.T, path string) [][]string {
	out, err := pptx.SlideTexts(path)
	require.NoError(t, err)
	return out
}

type fakeResolver struct {
	dir   string
	calls int
}

func (f *fakeResolver) ResolveAll(_ context.Context, refs map[int]content.ImageRef, dir string) map[int]*asset.ResolvedAsset {
	f.dir = dir
	f.calls++
	out := make(map[int]*asset.ResolvedAsset)
	for i, ref := range refs {
		img := image.NewRGBA(image.Rect(0, 0, 8, 8))
		for p := range img.Pix {
			img.Pix[p] = 0xff
		}
		img.Set(1, 1, color.RGBA{R: 255, A: 255})
		path := filepath.Join(dir, "img.png")
		fh, err := os.Create(path)
		if err != nil {
			continue
		}
		png.Encode(fh, img)
		fh.Close()
		out[i] = &asset.ResolvedAsset{Path: path, Source: ref.URL}
	}
	return out
}

func TestEmptyTemplateYieldsFallbackTitle(t *testing.T) {
	a := New(nil)
	for _, js := range []string{`[]`, `{"title":"Deck","slides":[]}`, `[{"id":"blank"}]`} {
		path, err := a.Assemble(context.Background(), Request{
			Template:  parse(t, js),
			OutputDir: t.TempDir(),
		})
		require.NoError(t, err, js)
		got := texts(t, path)
		require.Len(t, got, 1, js)
		if strings.Contains(js, "Deck") {
			assert.Contains(t, got[0], "Deck")
		} else {
			assert.Contains(t, got[0], DefaultTitle)
		}
	}
}

func TestNilTemplate(t *testing.T) {
	_, err := New(nil).Assemble(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoTemplate)
}

func TestDarkTextOnlyScenario(t *testing.T) {
	tpl := parse(t, `[{"title":"Intro"},{"bullets":["A","B","C"],"insight":"Summary line"}]`)
	path, err := New(nil).Assemble(context.Background(), Request{
		Title:       "Scenario",
		Style:       "dark",
		Template:    tpl,
		LayoutOrder: []layout.Kind{layout.TextOnly, layout.GridLayout, layout.ImageLeft, layout.ImageRight, layout.ImageTop, layout.SplitContent},
		OutputDir:   t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, ".pptx", filepath.Ext(path))

	got := texts(t, path)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"Intro"}, got[0])
	body := strings.Join(got[1], "\n")
	for _, want := range []string{"01.  A", "02.  B", "03.  C", "Summary line", "Slide 2"} {
		assert.Contains(t, body, want)
	}
}

func TestUnreachableImageDegradesToNoImage(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	resolver := asset.NewResolver(asset.Options{}, nil)

	withImage := parse(t, `[{"title":"Pics","bullets":["one","two"],"note":"kept","photo":{"type":"image","url":"`+srv.URL+`/missing.png"}}]`)
	without := parse(t, `[{"title":"Pics","bullets":["one","two"],"note":"kept"}]`)
	order := []layout.Kind{layout.ImageLeft}

	a := New(resolver)
	p1, err := a.Assemble(context.Background(), Request{Template: withImage, LayoutOrder: order, OutputDir: t.TempDir()})
	require.NoError(t, err)
	p2, err := a.Assemble(context.Background(), Request{Template: without, LayoutOrder: order, OutputDir: t.TempDir()})
	require.NoError(t, err)

	got := texts(t, p1)
	assert.Equal(t, texts(t, p2), got)
	joined := strings.Join(got[0], "\n")
	assert.Contains(t, joined, "Pics")
	assert.Contains(t, joined, "one")
	assert.Contains(t, joined, "kept")
}

func TestScratchDirRemoved(t *testing.T) {
	tpl := parse(t, `[{"title":"Pics","bullets":["one"],"photo":{"type":"image","url":"https://example.com/a.png"}}]`)
	f := &fakeResolver{}
	path, err := New(f).Assemble(context.Background(), Request{
		Template:    tpl,
		LayoutOrder: []layout.Kind{layout.ImageRight},
		OutputDir:   t.TempDir(),
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.calls)
	_, statErr := os.Stat(f.dir)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(path)
	assert.NoError(t, statErr)
}

func TestTextLayoutsSkipImageResolution(t *testing.T) {
	tpl := parse(t, `[{"title":"Pics","bullets":["one"],"photo":{"type":"image","url":"https://example.com/a.png"}}]`)
	f := &fakeResolver{}
	_, err := New(f).Assemble(context.Background(), Request{
		Template:    tpl,
		LayoutOrder: []layout.Kind{layout.TextOnly},
		OutputDir:   t.TempDir(),
	})
	require.NoError(t, err)
	assert.Zero(t, f.calls)
}

func TestPreResolvedImagesBypassResolver(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "local.png")
	fh, err := os.Create(imgPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(fh, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	fh.Close()

	tpl := parse(t, `[{"title":"Pics","bullets":["one"],"photo":{"type":"image","url":"https://example.com/a.png"}}]`)
	f := &fakeResolver{}
	_, err = New(f).Assemble(context.Background(), Request{
		Template:    tpl,
		LayoutOrder: []layout.Kind{layout.ImageLeft},
		Images:      map[int]string{0: imgPath},
		OutputDir:   t.TempDir(),
	})
	require.NoError(t, err)
	assert.Zero(t, f.calls)
}

func TestOrderBySlideNumber(t *testing.T) {
	tpl := parse(t, `[{"slide_number":2,"title":"Second","text":"b"},{"slide_number":1,"title":"First","text":"a"}]`)
	ordered := Order(tpl.Slides)
	assert.Equal(t, "First", ordered[0].Fields[1].Value)

	partial := parse(t, `[{"slide_number":2,"title":"Second"},{"title":"First"}]`)
	assert.Equal(t, partial.Slides, Order(partial.Slides))
}

func TestLayoutSequenceDeterministic(t *testing.T) {
	tpl := parse(t, `[{"title":"T"},{"a":"x"},{"a":"y"},{"title":"Mid"},{"a":"z"}]`)
	order := []layout.Kind{layout.ImageTop, layout.TextOnly}
	var kinds []layout.Kind
	ordinal := 0
	for i, spec := range Order(tpl.Slides) {
		if content.ClassifySlide(i, spec).Role == content.RoleContent {
			kinds = append(kinds, layout.Select(ordinal, order))
			ordinal++
		}
	}
	assert.Equal(t, []layout.Kind{layout.ImageTop, layout.TextOnly, layout.ImageTop}, kinds)
}

func slideXML(t *testing.T, path string) map[string]string {
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out[f.Name] = string(body)
	}
	return out
}

func TestUnusableLocalImageDegradesToText(t *testing.T) {
	dir := t.TempDir()
	notImage := filepath.Join(dir, "notes.png")
	require.NoError(t, os.WriteFile(notImage, []byte("plain text, not a picture"), 0644))

	tpl := parse(t, `[{"title":"Deck","subtitle":"Intro"},{"title":"Pics","bullets":["one","two"]}]`)
	for _, path := range []string{"/nonexistent/img.png", notImage} {
		out := t.TempDir()
		got, err := New(nil).Assemble(context.Background(), Request{
			Template:    tpl,
			LayoutOrder: []layout.Kind{layout.ImageLeft},
			Images:      map[int]string{1: path},
			OutputDir:   out,
		})
		require.NoError(t, err, path)

		entries := slideXML(t, got)
		slide := entries["ppt/slides/slide2.xml"]
		require.NotEmpty(t, slide)
		assert.NotContains(t, slide, "<p:pic", path)
		for name := range entries {
			assert.False(t, strings.HasPrefix(name, "ppt/media/"), name)
		}
		pages := texts(t, got)
		require.Len(t, pages, 2)
		assert.Contains(t, strings.Join(pages[1], "\n"), "one")
	}
}

func TestUnusableLocalImageFallsBackToRemote(t *testing.T) {
	tpl := parse(t, `[{"title":"Pics","bullets":["one"],"photo":{"type":"image","url":"https://example.com/a.png"}}]`)
	f := &fakeResolver{}
	path, err := New(f).Assemble(context.Background(), Request{
		Template:    tpl,
		LayoutOrder: []layout.Kind{layout.ImageLeft},
		Images:      map[int]string{0: "/nonexistent/img.png"},
		OutputDir:   t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)
	assert.Contains(t, slideXML(t, path)["ppt/slides/slide1.xml"], "<p:pic")
}
