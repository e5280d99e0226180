package parser

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// column 一个有效数据列：在行中的下标与规范化后的表头名
type column struct {
	index  int
	header string
}

// NormalizeHeader 规范化表头：全角折半角、NFKC 归一、去除所有空白
func NormalizeHeader(name string) string {
	name = width.Fold.String(name)
	name = norm.NFKC.String(name)
	return strings.Join(strings.Fields(name), "")
}

// validColumns 过滤掉表头为空或自动占位（Unnamed 前缀）的列
func validColumns(headers []string) []column {
	cols := make([]column, 0, len(headers))
	for i, h := range headers {
		name := NormalizeHeader(h)
		if name == "" || strings.HasPrefix(name, "Unnamed") {
			continue
		}
		cols = append(cols, column{index: i, header: name})
	}
	return cols
}

// cellAt 取单元格原始文本，越界视为空
func cellAt(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseNumber 宽松数值转换，容忍千分位与百分号
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "％", "%")
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
