package query

import "strings"

// SortField 单个排序键
type SortField struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// DefaultSort 默认排序：createdAt 降序
func DefaultSort() []SortField {
	return []SortField{{Field: "createdAt", Desc: true}}
}

// ParseSort 解析逗号分隔的排序串
//
// 每个 token 可带 "-" 前缀表示降序；裸字段名不在 allowed 中则丢弃
// （allowed 为空时全部保留），保持调用方给出的顺序。
// 没有任何有效 token 时回退到 createdAt 降序。
func ParseSort(spec string, allowed []string) []SortField {
	allowedSet := map[string]bool{}
	for _, f := range allowed {
		allowedSet[f] = true
	}

	var out []SortField
	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		desc := false
		if strings.HasPrefix(token, "-") {
			desc = true
			token = token[1:]
		}
		if token == "" {
			continue
		}
		if len(allowed) > 0 && !allowedSet[token] {
			continue
		}
		out = append(out, SortField{Field: token, Desc: desc})
	}

	if len(out) == 0 {
		return DefaultSort()
	}
	return out
}
