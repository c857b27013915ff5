package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Member 对象成员，保留声明顺序
type Member struct {
	Key   string
	Value any
}

// Object 保留键声明顺序的 JSON 对象
type Object []Member

// Get 按键查找成员值
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// String 返回键对应的标量字符串值，不存在或非标量时返回空串
func (o Object) String(key string) string {
	v, ok := o.Get(key)
	if !ok {
		return ""
	}
	s, _ := scalarString(v)
	return s
}

// Has 判断对象是否包含非空的键
func (o Object) Has(key string) bool {
	return o.String(key) != ""
}

// MarshalJSON 按声明顺序输出
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(m.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(m.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeOrdered 解码任意 JSON 值，对象解码为 Object，数字保留为 json.Number
func decodeOrdered(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected trailing data")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := Object{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("invalid object key %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj = append(obj, Member{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := []any{}
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	default:
		return tok, nil
	}
}

// scalarString 将标量值转为字符串；第二个返回值表示是否为标量
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// itemString 列表项转字符串：标量直接转换，对象取第一个标量成员
func itemString(v any) string {
	if s, ok := scalarString(v); ok {
		return strings.TrimSpace(s)
	}
	if obj, ok := v.(Object); ok {
		for _, m := range obj {
			if s, ok := scalarString(m.Value); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// toSequence 判断值是否为可转为字符串的序列
func toSequence(v any) ([]string, bool) {
	var items []string
	switch t := v.(type) {
	case []any:
		for _, it := range t {
			if s := itemString(it); s != "" {
				items = append(items, s)
			}
		}
		return items, true
	case []string:
		for _, it := range t {
			if s := strings.TrimSpace(it); s != "" {
				items = append(items, s)
			}
		}
		return items, true
	}
	return nil, false
}
