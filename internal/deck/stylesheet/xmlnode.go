package stylesheet

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

// node 通用 XML 元素树，按本地名匹配，忽略命名空间前缀
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []node     `xml:",any"`
}

func (n *node) child(local string) *node {
	if n == nil {
		return nil
	}
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			return &n.Children[i]
		}
	}
	return nil
}

func (n *node) children(local string) []*node {
	if n == nil {
		return nil
	}
	var out []*node
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			out = append(out, &n.Children[i])
		}
	}
	return out
}

// find 深度优先查找第一个匹配的后代
func (n *node) find(local string) *node {
	if n == nil {
		return nil
	}
	for i := range n.Children {
		c := &n.Children[i]
		if c.XMLName.Local == local {
			return c
		}
		if f := c.find(local); f != nil {
			return f
		}
	}
	return nil
}

// attr 无前缀属性
func (n *node) attr(local string) string {
	return n.attrNS("", local)
}

func (n *node) attrNS(space, local string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attrs {
		if a.Name.Local == local && a.Name.Space == space {
			return a.Value
		}
	}
	return ""
}

type pkg struct {
	files map[string]*zip.File
	names []string
}

func newPkg(zr *zip.Reader) *pkg {
	p := &pkg{files: make(map[string]*zip.File)}
	for _, f := range zr.File {
		p.files[f.Name] = f
		p.names = append(p.names, f.Name)
	}
	return p
}

// read 读取并解析部件，部件不存在时返回 nil
func (p *pkg) read(name string) (*node, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	var root node
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return &root, nil
}

func (p *pkg) list(prefix, suffix string) []string {
	var out []string
	for _, n := range p.names {
		if strings.HasPrefix(n, prefix) && strings.HasSuffix(n, suffix) && !strings.Contains(n[len(prefix):], "/") {
			out = append(out, n)
		}
	}
	return out
}

// rels 读取部件的关系表，目标路径解析为包内绝对路径
func (p *pkg) rels(part string) (map[string]string, error) {
	dir, file := path.Split(part)
	root, err := p.read(path.Join(dir, "_rels", file+".rels"))
	if err != nil || root == nil {
		return map[string]string{}, err
	}
	out := make(map[string]string)
	for _, rel := range root.children("Relationship") {
		id, target := rel.attr("Id"), rel.attr("Target")
		if id == "" || target == "" || rel.attr("TargetMode") == "External" {
			continue
		}
		out[id] = resolveTarget(dir, target)
	}
	return out, nil
}

func resolveTarget(dir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return strings.TrimPrefix(path.Join(dir, target), "/")
}
