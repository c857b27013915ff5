package utils

import (
	"encoding/json"
	"strings"

	"k8s.io/klog/v2"
)

// ExtractJSON 从模型输出中提取第一个完整的 JSON 对象，字符串中的花括号不计入层级
func ExtractJSON(content string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, ch := range content {
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}

	return content
}

func ToJSON(v any) string {
	jsonData, err := json.Marshal(v)
	if err != nil {
		klog.Errorf("JSON序列化失败: %v", err)
		return ""
	}
	return string(jsonData)
}

// ExtractMarkdown 从文本中提取 ```markdown ... ``` 代码块，没有代码块时返回去掉首尾空白的原文
func ExtractMarkdown(content string) string {
	const fence = "```"
	open := strings.Index(content, fence)
	if open < 0 {
		return strings.TrimSpace(content)
	}
	body := content[open+len(fence):]
	// 代码块语言标识占据首行
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		tag := strings.TrimSpace(body[:nl])
		if tag == "" || isFenceTag(tag) {
			body = body[nl+1:]
		}
	}
	end := strings.Index(body, fence)
	if end < 0 {
		klog.V(6).Infof("[ExtractMarkdown] 代码块未闭合，返回原始内容")
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(body[:end])
}

func isFenceTag(tag string) bool {
	switch strings.ToLower(tag) {
	case "markdown", "md", "text":
		return true
	}
	return false
}
