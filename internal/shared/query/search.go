package query

import "strings"

// SearchFields 全文检索覆盖的字段
var SearchFields = []string{"title", "author", "description", "isbn"}

// Search 自由文本检索描述符
//
// Term 为空表示匹配一切；非空时在 Fields 的任一字段中做
// 大小写不敏感的子串匹配（逻辑 OR）。
type Search struct {
	Term   string   `json:"term,omitempty"`
	Fields []string `json:"-"`
}

// NewSearch 构造检索描述符，term 两端空白被去除
func NewSearch(term string) Search {
	return Search{Term: strings.TrimSpace(term), Fields: SearchFields}
}

// Empty 是否为匹配一切的空检索
func (s Search) Empty() bool {
	return s.Term == ""
}
