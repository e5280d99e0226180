package dateparse

import (
	"time"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

// FieldStats 批量归一化的统计结果
type FieldStats struct {
	Parsed    int // 成功转为时间的个数
	Cleared   int // 哨兵值被置空的个数
	Unchanged int // 未识别、原样保留的个数
}

// NormalizeFields 就地归一化每条记录中指定字段的日期值
func (p *Parser) NormalizeFields(records []model.Record, fields []string) FieldStats {
	var stats FieldStats
	for _, rec := range records {
		for _, field := range fields {
			raw, ok := rec[field]
			if !ok || raw == nil {
				continue
			}
			out := p.Parse(raw)
			rec[field] = out
			switch out.(type) {
			case nil:
				stats.Cleared++
			case time.Time:
				stats.Parsed++
			default:
				stats.Unchanged++
			}
		}
	}
	return stats
}
