package layout

import (
	"encoding/json"
	"math/rand"
)

// Kind 内容页版式
type Kind string

const (
	ImageLeft    Kind = "image_left"
	ImageRight   Kind = "image_right"
	TextOnly     Kind = "text_only"
	SplitContent Kind = "split_content"
	ImageTop     Kind = "image_top"
	GridLayout   Kind = "grid_layout"
)

// Kinds 六种版式，按声明顺序
var Kinds = []Kind{ImageLeft, ImageRight, TextOnly, SplitContent, ImageTop, GridLayout}

// Valid 是否为已知版式
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ShowsImage 是否为带图片的版式
func (k Kind) ShowsImage() bool {
	switch k {
	case ImageLeft, ImageRight, ImageTop, SplitContent:
		return true
	}
	return false
}

// Select 为第 ordinal 个内容页（从 0 开始，不含标题页）选择版式
// permutation 为空或对应项不是已知版式时按声明顺序循环
func Select(ordinal int, permutation []Kind) Kind {
	if ordinal < 0 {
		ordinal = -ordinal
	}
	if len(permutation) > 0 {
		if k := permutation[ordinal%len(permutation)]; k.Valid() {
			return k
		}
	}
	return Kinds[ordinal%len(Kinds)]
}

// Shuffle 使用注入的随机源生成六种版式的一个排列
func Shuffle(r *rand.Rand) []Kind {
	out := make([]Kind, len(Kinds))
	copy(out, Kinds)
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Parse 解析持久化的版式顺序（JSON 字符串数组），解析失败返回 nil
func Parse(data string) []Kind {
	if data == "" {
		return nil
	}
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil
	}
	out := make([]Kind, 0, len(names))
	for _, n := range names {
		out = append(out, Kind(n))
	}
	return out
}

// Encode 序列化版式顺序
func Encode(kinds []Kind) string {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}
	data, _ := json.Marshal(names)
	return string(data)
}
