package content

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"k8s.io/klog/v2"
)

// ErrBadInput 模板格式非法
var ErrBadInput = errors.New("malformed slide template")

// Field 归一化后的单个字段
// Type 为列表形态记录中的 type 提示，映射形态下来自 {type, content} 记录
type Field struct {
	Key   string
	Type  string
	Value any
}

// SlideSpec 单页幻灯片的内容描述
type SlideSpec struct {
	ID         string
	Kind       string
	LayoutHint string
	Title      string
	Number     int
	HasNumber  bool
	Fields     []Field
}

// Template 幻灯片模板
type Template struct {
	ID     string
	Title  string
	Slides []SlideSpec
}

// slide 对象上属于幻灯片本身的属性键
var slideAttrKeys = map[string]bool{
	"id":           true,
	"kind":         true,
	"type":         true,
	"layout":       true,
	"slide_number": true,
}

// ParseTemplate 解析模板 JSON，支持顶层数组或 {title, slides} 包装
func ParseTemplate(data []byte) (*Template, error) {
	raw, err := decodeOrdered(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadInput, err)
	}

	tpl := &Template{}
	var slides []any
	switch v := raw.(type) {
	case []any:
		slides = v
	case Object:
		tpl.ID = v.String("id")
		tpl.Title = strings.TrimSpace(v.String("title"))
		s, ok := v.Get("slides")
		if !ok {
			return nil, fmt.Errorf("%w: missing slides", ErrBadInput)
		}
		arr, ok := s.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: slides must be a list", ErrBadInput)
		}
		slides = arr
	default:
		return nil, fmt.Errorf("%w: expected list or object", ErrBadInput)
	}

	for i, s := range slides {
		obj, ok := s.(Object)
		if !ok {
			klog.Warningf("[Template] 跳过非对象幻灯片: index=%d", i)
			continue
		}
		tpl.Slides = append(tpl.Slides, ParseSlide(obj))
	}
	return tpl, nil
}

// ParseSlide 将单个幻灯片对象归一化为 SlideSpec
func ParseSlide(obj Object) SlideSpec {
	spec := SlideSpec{
		ID:         obj.String("id"),
		Kind:       obj.String("kind"),
		LayoutHint: obj.String("layout"),
	}
	if spec.Kind == "" {
		spec.Kind = obj.String("type")
	}
	if n := obj.String("slide_number"); n != "" {
		if num, err := strconv.Atoi(n); err == nil {
			spec.Number = num
			spec.HasNumber = true
		}
	}

	if fields, ok := obj.Get("fields"); ok {
		spec.Title = strings.TrimSpace(obj.String("title"))
		spec.Fields = NormalizeFields(fields)
		return spec
	}

	flat := Object{}
	for _, m := range obj {
		if slideAttrKeys[m.Key] {
			continue
		}
		flat = append(flat, m)
	}
	spec.Fields = NormalizeFields(flat)
	return spec
}

// NormalizeFields 将映射形态或 {id,type,value} 列表形态的字段集合统一为有序字段列表
// 映射形态按键的字典序遍历
func NormalizeFields(v any) []Field {
	var fields []Field
	switch t := v.(type) {
	case Object:
		sorted := make(Object, len(t))
		copy(sorted, t)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
		for _, m := range sorted {
			fields = append(fields, unwrapRecord(m.Key, "", m.Value))
		}
	case []any:
		for _, item := range t {
			rec, ok := item.(Object)
			if !ok {
				continue
			}
			key := rec.String("id")
			if key == "" {
				key = rec.String("key")
			}
			val, _ := rec.Get("value")
			fields = append(fields, unwrapRecord(key, rec.String("type"), val))
		}
	}
	return fields
}

// unwrapRecord 展开 {type, content} 形式的结构化值
func unwrapRecord(key, typ string, v any) Field {
	f := Field{Key: key, Type: strings.ToLower(strings.TrimSpace(typ)), Value: v}
	obj, ok := v.(Object)
	if !ok {
		return f
	}
	recType := strings.ToLower(obj.String("type"))
	if recType == "" {
		return f
	}
	payload, ok := obj.Get("content")
	if !ok {
		payload, ok = obj.Get("value")
	}
	if !ok {
		if recType == "image" {
			f.Type = recType
		}
		return f
	}
	f.Type = recType
	f.Value = payload
	return f
}

// TextField 构造纯文本字段
func TextField(key, text string) Field {
	return Field{Key: key, Value: text}
}

// ListField 构造列表字段
func ListField(key string, items []string) Field {
	seq := make([]any, 0, len(items))
	for _, it := range items {
		seq = append(seq, it)
	}
	return Field{Key: key, Type: "bullet", Value: seq}
}

// ImageField 构造图片字段
func ImageField(key, url, query, title string) Field {
	obj := Object{}
	if query != "" {
		obj = append(obj, Member{Key: "query", Value: query})
	}
	if url != "" {
		obj = append(obj, Member{Key: "url", Value: url})
	}
	if title != "" {
		obj = append(obj, Member{Key: "title", Value: title})
	}
	return Field{Key: key, Type: "image", Value: obj}
}
