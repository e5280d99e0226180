// Package dateparse 归一化电子表格里五花八门的日期写法。
// 哨兵值（如“未开票”）解析为 nil；所有规则都不命中时原样返回输入，
// 绝不因为识别失败而丢数据或中断。
package dateparse

import (
	"log"
	"regexp"
	"strings"
	"time"
)

// Rule 一条 (结构正则, 时间布局) 解析规则
// 正则先做结构判定，命中后再按布局严格解析；解析失败则继续尝试后续规则。
type Rule struct {
	Pattern *regexp.Regexp
	Layout  string
}

// Parser 日期归一化器
type Parser struct {
	rules     []Rule
	sentinels map[string]struct{}
}

// New 创建日期归一化器，内置规则按优先级排列
func New() *Parser {
	p := &Parser{
		rules: []Rule{
			// ISO 格式
			{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(Z|[+-]\d{2}:\d{2})$`), time.RFC3339},
			{regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}T\d{1,2}:\d{1,2}:\d{1,2}$`), "2006-1-2T15:4:5"},
			{regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`), "2006-1-2"},
			{regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}\s+\d{1,2}:\d{1,2}:\d{1,2}$`), "2006-1-2 15:4:5"},
			// 点分隔
			{regexp.MustCompile(`^\d{4}\.\d{1,2}\.\d{1,2}$`), "2006.1.2"},
			{regexp.MustCompile(`^\d{4}\.\d{1,2}\.\d{1,2}\s+\d{1,2}:\d{1,2}:\d{1,2}$`), "2006.1.2 15:4:5"},
			// 斜杠分隔（年在前 / 月在前两种）
			{regexp.MustCompile(`^\d{4}/\d{1,2}/\d{1,2}$`), "2006/1/2"},
			{regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`), "1/2/2006"},
			// 中文格式
			{regexp.MustCompile(`^\d{4}年\d{1,2}月\d{1,2}日$`), "2006年1月2日"},
			// 紧凑格式 20231201
			{regexp.MustCompile(`^\d{8}$`), "20060102"},
		},
		sentinels: map[string]struct{}{},
	}

	for _, s := range []string{
		"未开票", "待开票", "未确定", "待定", "无", "空",
		"", "NULL", "null", "N/A", "n/a", "暂无", "未知",
	} {
		p.sentinels[s] = struct{}{}
	}

	return p
}

// AddRule 注册自定义解析规则，插入到最高优先级
func (p *Parser) AddRule(pattern string, layout string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	p.rules = append([]Rule{{re, layout}}, p.rules...)
	return nil
}

// AddSentinel 注册额外的哨兵值（精确匹配，区分大小写）
func (p *Parser) AddSentinel(value string) {
	p.sentinels[value] = struct{}{}
}

// Parse 归一化单个日期值
// 已是 time.Time 的原样返回；nil 返回 nil；哨兵值返回 nil；
// 规则全部不命中（或命中后严格解析失败）时返回原始输入并告警——
// 宁可保留脏值也不静默丢数据，这与哨兵的显式置空是两条路径。
func (p *Parser) Parse(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		return v
	case string:
		s := strings.TrimSpace(v)
		if _, ok := p.sentinels[s]; ok {
			return nil
		}
		for _, rule := range p.rules {
			if !rule.Pattern.MatchString(s) {
				continue
			}
			t, err := time.Parse(rule.Layout, s)
			if err != nil {
				// 结构匹配但不是合法日期（如 31/02/2023），继续尝试下一条规则
				continue
			}
			return t
		}
		log.Printf("警告: 无法解析日期值 '%s'", s)
		return value
	default:
		return value
	}
}

// ParseTime 归一化并要求得到时间，失败时 ok 为 false
func (p *Parser) ParseTime(value any) (time.Time, bool) {
	t, ok := p.Parse(value).(time.Time)
	return t, ok
}
