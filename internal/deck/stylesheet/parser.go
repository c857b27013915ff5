package stylesheet

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"k8s.io/klog/v2"
)

// ErrInvalidPackage 不是有效的 PPTX 包
var ErrInvalidPackage = errors.New("invalid pptx package")

const (
	emuPerInch       = 914400
	dpi              = 96
	relationshipsNS  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	presentationPart = "ppt/presentation.xml"
)

// 只保留主要占位符类型
var mainPlaceholderTypes = map[string]bool{
	"title": true, "ctrTitle": true, "subTitle": true,
	"body": true, "obj": true, "pic": true, "tbl": true,
	"chart": true, "clipArt": true, "dgm": true, "media": true,
}

// SlideSize 幻灯片尺寸
type SlideSize struct {
	WidthEMU   int64 `json:"widthEMU"`
	HeightEMU  int64 `json:"heightEMU"`
	WidthPx96  int   `json:"widthPx96"`
	HeightPx96 int   `json:"heightPx96"`
}

// ThemeColor 配色方案中的一项，Hex/Scheme/Preset 三选一
type ThemeColor struct {
	Role   string `json:"role"`
	Hex    string `json:"hex,omitempty"`
	Scheme string `json:"scheme,omitempty"`
	Preset string `json:"preset,omitempty"`
}

// Palette 主题配色
type Palette struct {
	Name   string       `json:"name"`
	Colors []ThemeColor `json:"colors"`
}

// ScriptFont 特定文字脚本的补充字体
type ScriptFont struct {
	Script   string `json:"script"`
	Typeface string `json:"typeface"`
}

// FontSet 主/次字体
type FontSet struct {
	Latin         string       `json:"latin,omitempty"`
	EastAsian     string       `json:"eastAsian,omitempty"`
	ComplexScript string       `json:"complexScript,omitempty"`
	Supplemental  []ScriptFont `json:"supplemental"`
}

// FontScheme 主题字体方案
type FontScheme struct {
	Name  string   `json:"name"`
	Major *FontSet `json:"major,omitempty"`
	Minor *FontSet `json:"minor,omitempty"`
}

// Position 占位符位置，同时给出 EMU、96dpi 像素和相对幻灯片的百分比
type Position struct {
	XEMU  int64   `json:"xEMU"`
	YEMU  int64   `json:"yEMU"`
	WEMU  int64   `json:"wEMU"`
	HEMU  int64   `json:"hEMU"`
	XPx96 int     `json:"xPx96"`
	YPx96 int     `json:"yPx96"`
	WPx96 int     `json:"wPx96"`
	HPx96 int     `json:"hPx96"`
	XPct  float64 `json:"xPct"`
	YPct  float64 `json:"yPct"`
	WPct  float64 `json:"wPct"`
	HPct  float64 `json:"hPct"`
}

// Placeholder 版式中的占位符
type Placeholder struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Idx      *int     `json:"idx,omitempty"`
	Position Position `json:"position"`
}

// Layout 母版下的一个版式
type Layout struct {
	Path         string        `json:"path"`
	Type         string        `json:"type,omitempty"`
	MatchingName string        `json:"matchingName,omitempty"`
	Placeholders []Placeholder `json:"placeholders"`
	Error        string        `json:"error,omitempty"`
}

// Result 样式解析结果
type Result struct {
	SlideSize *SlideSize  `json:"slideSize,omitempty"`
	Palette   *Palette    `json:"palette,omitempty"`
	Fonts     *FontScheme `json:"fonts,omitempty"`
	Layouts   []Layout    `json:"layouts"`
}

// Parse 解析 PPTX 文件的尺寸、主题配色、字体方案与版式占位符
func Parse(path string) (*Result, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}
	defer zr.Close()
	return parse(&zr.Reader)
}

// ParseReader 从内存中的 PPTX 解析
func ParseReader(r io.ReaderAt, size int64) (*Result, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}
	return parse(zr)
}

func parse(zr *zip.Reader) (*Result, error) {
	p := newPkg(zr)
	if _, ok := p.files[presentationPart]; !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidPackage, presentationPart)
	}

	res := &Result{Layouts: []Layout{}}
	var err error
	if res.SlideSize, err = parseSlideSize(p); err != nil {
		return nil, err
	}

	themes := p.list("ppt/theme/", ".xml")
	sort.Strings(themes)
	if len(themes) > 0 {
		th, err := p.read(themes[0])
		if err != nil {
			return nil, err
		}
		res.Palette = parsePalette(th)
		res.Fonts = parseFonts(th)
	}

	var w, h int64
	if res.SlideSize != nil {
		w, h = res.SlideSize.WidthEMU, res.SlideSize.HeightEMU
	}
	masters := p.list("ppt/slideMasters/", ".xml")
	sort.Strings(masters)
	for _, mp := range masters {
		layouts, err := masterLayouts(p, mp)
		if err != nil {
			return nil, err
		}
		for _, lp := range layouts {
			res.Layouts = append(res.Layouts, parseLayout(p, lp, w, h))
		}
	}
	klog.V(6).Infof("[StyleParser] 解析完成: masters=%d, layouts=%d", len(masters), len(res.Layouts))
	return res, nil
}

func emuToPx(v int64) int {
	return int(math.Round(float64(v) / emuPerInch * dpi))
}

func pct(v, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(v)/float64(total)*10000) / 100
}

func parseSlideSize(p *pkg) (*SlideSize, error) {
	root, err := p.read(presentationPart)
	if err != nil {
		return nil, err
	}
	sz := root.child("sldSz")
	if sz == nil {
		return nil, nil
	}
	cx, err1 := strconv.ParseInt(sz.attr("cx"), 10, 64)
	cy, err2 := strconv.ParseInt(sz.attr("cy"), 10, 64)
	if err1 != nil || err2 != nil {
		return nil, fmt.Errorf("%w: bad slide size", ErrInvalidPackage)
	}
	return &SlideSize{WidthEMU: cx, HeightEMU: cy, WidthPx96: emuToPx(cx), HeightPx96: emuToPx(cy)}, nil
}

func parsePalette(theme *node) *Palette {
	cs := theme.find("clrScheme")
	if cs == nil {
		return nil
	}
	pal := &Palette{Name: cs.attr("name")}
	for i := range cs.Children {
		c := &cs.Children[i]
		tc := ThemeColor{Role: c.XMLName.Local}
		switch {
		case c.child("srgbClr") != nil:
			tc.Hex = "#" + strings.ToUpper(c.child("srgbClr").attr("val"))
		case c.child("sysClr") != nil:
			tc.Hex = "#" + strings.ToUpper(c.child("sysClr").attr("lastClr"))
		case c.child("schemeClr") != nil:
			tc.Scheme = c.child("schemeClr").attr("val")
		case c.child("prstClr") != nil:
			tc.Preset = c.child("prstClr").attr("val")
		}
		pal.Colors = append(pal.Colors, tc)
	}
	return pal
}

func parseFonts(theme *node) *FontScheme {
	fs := theme.find("fontScheme")
	if fs == nil {
		return nil
	}
	return &FontScheme{
		Name:  fs.attr("name"),
		Major: fontSet(fs.child("majorFont")),
		Minor: fontSet(fs.child("minorFont")),
	}
}

func fontSet(n *node) *FontSet {
	if n == nil {
		return nil
	}
	set := &FontSet{
		Latin:         n.child("latin").attr("typeface"),
		EastAsian:     n.child("ea").attr("typeface"),
		ComplexScript: n.child("cs").attr("typeface"),
		Supplemental:  []ScriptFont{},
	}
	for _, f := range n.children("font") {
		set.Supplemental = append(set.Supplemental, ScriptFont{Script: f.attr("script"), Typeface: f.attr("typeface")})
	}
	return set
}

// masterLayouts 按母版 sldLayoutIdLst 的顺序列出版式部件，没有列表时使用关系表
func masterLayouts(p *pkg, master string) ([]string, error) {
	rels, err := p.rels(master)
	if err != nil {
		return nil, err
	}
	root, err := p.read(master)
	if err != nil || root == nil {
		return nil, err
	}
	var out []string
	if lst := root.child("sldLayoutIdLst"); lst != nil {
		for _, it := range lst.children("sldLayoutId") {
			if target, ok := rels[it.attrNS(relationshipsNS, "id")]; ok {
				out = append(out, target)
			}
		}
		return out, nil
	}
	for _, target := range rels {
		if strings.HasPrefix(target, "ppt/slideLayouts/") {
			out = append(out, target)
		}
	}
	sort.Strings(out)
	return out, nil
}

func parseLayout(p *pkg, part string, slideW, slideH int64) Layout {
	l := Layout{Path: part, Placeholders: []Placeholder{}}
	root, err := p.read(part)
	if err != nil {
		klog.Warningf("[StyleParser] 读取版式失败: path=%s, error=%v", part, err)
		l.Error = err.Error()
		return l
	}
	if root == nil {
		l.Error = "missing"
		return l
	}
	l.Type = root.attr("type")
	l.MatchingName = root.attr("matchingName")

	for _, sp := range root.child("cSld").child("spTree").children("sp") {
		nv := sp.child("nvSpPr")
		ph := nv.child("nvPr").child("ph")
		if ph == nil {
			continue
		}
		typ := ph.attr("type")
		if typ == "" {
			typ = "body"
		}
		if !mainPlaceholderTypes[typ] {
			continue
		}
		pos, ok := xfrm(sp.child("spPr"), slideW, slideH)
		if !ok {
			continue
		}
		item := Placeholder{Name: nv.child("cNvPr").attr("name"), Type: typ, Position: pos}
		if idx, err := strconv.Atoi(ph.attr("idx")); err == nil {
			item.Idx = &idx
		}
		l.Placeholders = append(l.Placeholders, item)
	}
	return l
}

// xfrm 读取 a:xfrm 的偏移与尺寸，缺失时由母版继承，此处跳过
func xfrm(spPr *node, slideW, slideH int64) (Position, bool) {
	x := spPr.child("xfrm")
	off, ext := x.child("off"), x.child("ext")
	if off == nil || ext == nil {
		return Position{}, false
	}
	vals := make([]int64, 4)
	for i, raw := range []string{off.attr("x"), off.attr("y"), ext.attr("cx"), ext.attr("cy")} {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Position{}, false
		}
		vals[i] = v
	}
	return Position{
		XEMU: vals[0], YEMU: vals[1], WEMU: vals[2], HEMU: vals[3],
		XPx96: emuToPx(vals[0]), YPx96: emuToPx(vals[1]),
		WPx96: emuToPx(vals[2]), HPx96: emuToPx(vals[3]),
		XPct: pct(vals[0], slideW), YPct: pct(vals[1], slideH),
		WPct: pct(vals[2], slideW), HPct: pct(vals[3], slideH),
	}, true
}
