package adk

import "strings"

// ExtractJSON 从模型输出中提取第一个 JSON 对象或数组
// 依次尝试：整体即 JSON、```json 代码块、``` 代码块、括号匹配
func ExtractJSON(content string) string {
	content = strings.TrimSpace(content)
	if isWrapped(content) {
		return content
	}

	if idx := strings.Index(content, "```json"); idx != -1 {
		start := idx + 7
		if end := strings.Index(content[start:], "```"); end != -1 {
			return strings.TrimSpace(content[start : start+end])
		}
	}

	if idx := strings.Index(content, "```"); idx != -1 {
		start := idx + 3
		if newline := strings.Index(content[start:], "\n"); newline != -1 {
			start += newline + 1
		}
		if end := strings.Index(content[start:], "```"); end != -1 {
			extracted := strings.TrimSpace(content[start : start+end])
			if isWrapped(extracted) {
				return extracted
			}
		}
	}

	start := strings.IndexAny(content, "{[")
	if start == -1 {
		return ""
	}
	open := content[start]
	closeCh := byte('}')
	if open == '[' {
		closeCh = ']'
	}

	depth := 0
	inString := false
	escape := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if escape {
			escape = false
			continue
		}
		if c == '\\' && inString {
			escape = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case open:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}

func isWrapped(s string) bool {
	return (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"))
}
