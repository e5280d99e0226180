// Package filter 剔除解析结果里的空行与无效行。
package filter

import (
	"log"
	"math"
	"strings"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

// IsBlank 判断一个单元格值是否视为空：nil、NaN、空白字符串
func IsBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case float64:
		return math.IsNaN(v)
	case float32:
		return math.IsNaN(float64(v))
	default:
		return false
	}
}

// Validator 关键字段取值校验函数
type Validator func(value any) bool

// NonBlankString 默认校验器：必须是非空白字符串
func NonBlankString(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	return strings.TrimSpace(s) != ""
}

// FilterEmpty 剔除空记录：必填字段存在且为空即剔除，同时要求除
// excludeFields 外至少有一个字段非空（如备注列不算有效内容）。
// 返回保留的记录与被剔除的条数。
func FilterEmpty(records []model.Record, requiredFields, excludeFields []string) ([]model.Record, int) {
	excluded := make(map[string]struct{}, len(excludeFields))
	for _, f := range excludeFields {
		excluded[f] = struct{}{}
	}

	kept := make([]model.Record, 0, len(records))
	dropped := 0
	for _, rec := range records {
		if hasContent(rec, requiredFields, excluded) {
			kept = append(kept, rec)
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		log.Printf("过滤掉 %d 条空记录", dropped)
	}
	return kept, dropped
}

func hasContent(rec model.Record, requiredFields []string, excluded map[string]struct{}) bool {
	for _, f := range requiredFields {
		if v, ok := rec[f]; ok && IsBlank(v) {
			return false
		}
	}
	for f, v := range rec {
		if _, skip := excluded[f]; skip {
			continue
		}
		if !IsBlank(v) {
			return true
		}
	}
	return false
}

// FilterRequireAny 保留在 fields 中至少有一个字段非空的记录
func FilterRequireAny(records []model.Record, fields []string) ([]model.Record, int) {
	kept := make([]model.Record, 0, len(records))
	dropped := 0
	for _, rec := range records {
		keep := false
		for _, f := range fields {
			if !IsBlank(rec[f]) {
				keep = true
				break
			}
		}
		if keep {
			kept = append(kept, rec)
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		log.Printf("过滤掉 %d 条空记录", dropped)
	}
	return kept, dropped
}

// FilterByKeyField 保留关键字段通过校验的记录
// validator 为 nil 时使用 NonBlankString。返回保留的记录与被剔除的条数。
func FilterByKeyField(records []model.Record, keyField string, validator Validator) ([]model.Record, int) {
	if validator == nil {
		validator = NonBlankString
	}
	kept := make([]model.Record, 0, len(records))
	dropped := 0
	for _, rec := range records {
		if validator(rec[keyField]) {
			kept = append(kept, rec)
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		log.Printf("字段 '%s' 校验未通过，过滤掉 %d 条记录", keyField, dropped)
	}
	return kept, dropped
}

// FilterSuppliers 剔除供应商名称为空的记录
func FilterSuppliers(records []model.Record) ([]model.Record, int) {
	return FilterByKeyField(records, "supplier_name", nil)
}

// FilterCustomers 剔除客户名称为空的记录
func FilterCustomers(records []model.Record) ([]model.Record, int) {
	return FilterByKeyField(records, "customer_name", nil)
}
