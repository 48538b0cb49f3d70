package query

import "strconv"

// RangeFields 支持 _gte/_lte 区间后缀的数值字段
var RangeFields = []string{"publishedYear", "price"}

// Condition 单个过滤条件
//
// 同一时间只有一种形态生效：
//   - Eq: 精确匹配（原样字符串）
//   - EqNum: 精确数值匹配
//   - GTE/LTE: 数值区间（可只设一端）
//   - Contains: 大小写不敏感的子串匹配（仅由调用方显式构造，解析器不产生）
type Condition struct {
	Field    string   `json:"field"`
	Eq       string   `json:"eq,omitempty"`
	EqNum    *float64 `json:"eqNum,omitempty"`
	GTE      *float64 `json:"gte,omitempty"`
	LTE      *float64 `json:"lte,omitempty"`
	Contains string   `json:"contains,omitempty"`
}

// Filter 有序的过滤条件集合
type Filter []Condition

// Has 是否已包含某字段的条件
func (f Filter) Has(field string) bool {
	for _, c := range f {
		if c.Field == field {
			return true
		}
	}
	return false
}

// Eq 构造精确匹配条件
func Eq(field, value string) Condition {
	return Condition{Field: field, Eq: value}
}

// Contains 构造大小写不敏感的子串匹配条件
func Contains(field, term string) Condition {
	return Condition{Field: field, Contains: term}
}

// ParseFilters 从请求参数解析过滤条件
//
// 只考虑 allowed 中的字段。RangeFields 中的字段识别 <field>_gte /
// <field>_lte 后缀并转为数值区间；两个后缀都不在而裸字段在时转为精确
// 数值匹配。其余字段为原样精确匹配。缺失字段直接省略，不补默认值。
func ParseFilters(params map[string]string, allowed []string) Filter {
	rangeSet := map[string]bool{}
	for _, f := range RangeFields {
		rangeSet[f] = true
	}

	var out Filter
	for _, field := range allowed {
		if rangeSet[field] {
			if c, ok := parseRange(params, field); ok {
				out = append(out, c)
			}
			continue
		}
		if v, ok := params[field]; ok && v != "" {
			out = append(out, Eq(field, v))
		}
	}
	return out
}

// parseRange 解析区间字段：_gte/_lte 优先，否则裸字段精确数值匹配
func parseRange(params map[string]string, field string) (Condition, bool) {
	c := Condition{Field: field}
	if v, ok := parseNum(params[field+"_gte"]); ok {
		c.GTE = &v
	}
	if v, ok := parseNum(params[field+"_lte"]); ok {
		c.LTE = &v
	}
	if c.GTE != nil || c.LTE != nil {
		return c, true
	}
	if v, ok := parseNum(params[field]); ok {
		c.EqNum = &v
		return c, true
	}
	return Condition{}, false
}

func parseNum(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
