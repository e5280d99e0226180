package docstore

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// GroupAgg 一个分组键的聚合结果
type GroupAgg struct {
	Key     string
	Sum     float64
	MaxDate string // RFC3339，取分组内日期字段的最大值
	Count   int
}

// AggregateOptions 分组聚合的可选过滤
type AggregateOptions struct {
	Key      string // 只统计该分组键
	DateFrom string // 日期字段下界（含）
	DateTo   string // 日期字段上界（含）
}

// GroupSumMax 按 keyField 分组，对 sumField 求和并取 dateField 的最大值
// 文档里的时间序列化为 RFC3339 字符串，字典序与时间序一致，可直接 MAX。
func (s *Store) GroupSumMax(collection, keyField, sumField, dateField string, opts AggregateOptions) (map[string]GroupAgg, error) {
	if err := s.EnsureCollection(collection); err != nil {
		return nil, err
	}
	keyPath, err := fieldPath(keyField)
	if err != nil {
		return nil, err
	}
	sumPath, err := fieldPath(sumField)
	if err != nil {
		return nil, err
	}
	datePath, err := fieldPath(dateField)
	if err != nil {
		return nil, err
	}

	var conds []string
	var args []any
	conds = append(conds, fmt.Sprintf(`json_extract(doc, '%s') IS NOT NULL`, keyPath))
	if opts.Key != "" {
		conds = append(conds, fmt.Sprintf(`json_extract(doc, '%s') = ?`, keyPath))
		args = append(args, opts.Key)
	}
	if opts.DateFrom != "" {
		conds = append(conds, fmt.Sprintf(`json_extract(doc, '%s') >= ?`, datePath))
		args = append(args, opts.DateFrom)
	}
	if opts.DateTo != "" {
		conds = append(conds, fmt.Sprintf(`json_extract(doc, '%s') <= ?`, datePath))
		args = append(args, opts.DateTo)
	}

	sqlStr := fmt.Sprintf(`SELECT
			json_extract(doc, '%s'),
			COALESCE(SUM(json_extract(doc, '%s')), 0),
			COALESCE(MAX(json_extract(doc, '%s')), ''),
			COUNT(*)
		FROM %q WHERE %s GROUP BY json_extract(doc, '%s')`,
		keyPath, sumPath, datePath, collection, strings.Join(conds, " AND "), keyPath)

	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate collection %s: %w", collection, err)
	}
	defer rows.Close()

	result := make(map[string]GroupAgg)
	for rows.Next() {
		var agg GroupAgg
		if err := rows.Scan(&agg.Key, &agg.Sum, &agg.MaxDate, &agg.Count); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		result[agg.Key] = agg
	}
	return result, rows.Err()
}

// MaxSequenceForPrefix 取编码字段中指定前缀下的最大序号
// 编码形如 P-13-05-0000-007，序号是最后一段的三位数字。
func (s *Store) MaxSequenceForPrefix(collection, codeField, prefix string) (int, error) {
	if err := s.EnsureCollection(collection); err != nil {
		return 0, err
	}
	path, err := fieldPath(codeField)
	if err != nil {
		return 0, err
	}

	rows, err := s.db.Query(fmt.Sprintf(
		`SELECT json_extract(doc, '%s') FROM %q WHERE json_extract(doc, '%s') LIKE ? || '%%'`,
		path, collection, path), prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to scan codes: %w", err)
	}
	defer rows.Close()

	maxSeq := 0
	for rows.Next() {
		var code sql.NullString
		if err := rows.Scan(&code); err != nil {
			return 0, fmt.Errorf("failed to scan code: %w", err)
		}
		if !code.Valid {
			continue
		}
		tail := strings.TrimPrefix(code.String, prefix)
		seq, err := strconv.Atoi(tail)
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq, rows.Err()
}
