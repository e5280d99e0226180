package model

import "strings"

// Record 解析后的单条数据记录
// 键为词典翻译后的英文字段名，未命中词典的键保留原始中文列名。
// 值为标量：string、float64、time.Time（日期归一化后）或 nil。
type Record map[string]any

// Clone 返回记录的浅拷贝
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// GetString 取字符串字段，不存在或非字符串时返回空串
func (r Record) GetString(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// GetFloat 取数值字段，不存在或非数值时返回 0
func (r Record) GetFloat(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// HasText 判断字段是否为非空白字符串
func (r Record) HasText(key string) bool {
	return strings.TrimSpace(r.GetString(key)) != ""
}
