package docstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

// Query 检索条件
type Query struct {
	Filter       map[string]any // 字段等值过滤
	Search       string         // 不区分大小写的正则
	SearchFields []string       // 正则作用的字段，任一命中即保留
	SortBy       string
	SortDesc     bool
	Skip         int
	Limit        int // <= 0 表示不限制
}

// Find 按条件检索文档
func (s *Store) Find(collection string, q Query) ([]model.Record, error) {
	if err := s.EnsureCollection(collection); err != nil {
		return nil, err
	}

	where, args, err := buildWhere(q)
	if err != nil {
		return nil, err
	}

	sqlStr := fmt.Sprintf(`SELECT doc FROM %q%s`, collection, where)
	if q.SortBy != "" {
		path, err := fieldPath(q.SortBy)
		if err != nil {
			return nil, err
		}
		dir := "ASC"
		if q.SortDesc {
			dir = "DESC"
		}
		sqlStr += fmt.Sprintf(` ORDER BY json_extract(doc, '%s') %s`, path, dir)
	}
	if q.Limit > 0 {
		sqlStr += fmt.Sprintf(` LIMIT %d OFFSET %d`, q.Limit, q.Skip)
	} else if q.Skip > 0 {
		sqlStr += fmt.Sprintf(` LIMIT -1 OFFSET %d`, q.Skip)
	}

	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		var rec model.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FindOne 按等值条件取第一个文档；无匹配时返回 ErrNotFound
func (s *Store) FindOne(collection string, filter map[string]any) (model.Record, error) {
	records, err := s.Find(collection, Query{Filter: filter, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

// FindByID 按 _id 取文档；不存在时返回 ErrNotFound
func (s *Store) FindByID(collection, id string) (model.Record, error) {
	if err := s.EnsureCollection(collection); err != nil {
		return nil, err
	}
	var raw string
	row := s.db.QueryRow(fmt.Sprintf(`SELECT doc FROM %q WHERE _id = ?`, collection), id)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	var rec model.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return rec, nil
}

// Count 统计满足条件的文档数（忽略排序与分页）
func (s *Store) Count(collection string, q Query) (int, error) {
	if err := s.EnsureCollection(collection); err != nil {
		return 0, err
	}
	where, args, err := buildWhere(q)
	if err != nil {
		return 0, err
	}
	var n int
	row := s.db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %q%s`, collection, where), args...)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count collection %s: %w", collection, err)
	}
	return n, nil
}

func buildWhere(q Query) (string, []any, error) {
	var conds []string
	var args []any

	for field, value := range q.Filter {
		if field == "_id" {
			conds = append(conds, `_id = ?`)
			args = append(args, value)
			continue
		}
		path, err := fieldPath(field)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, fmt.Sprintf(`json_extract(doc, '%s') = ?`, path))
		args = append(args, value)
	}

	if q.Search != "" && len(q.SearchFields) > 0 {
		var ors []string
		for _, field := range q.SearchFields {
			path, err := fieldPath(field)
			if err != nil {
				return "", nil, err
			}
			ors = append(ors, fmt.Sprintf(`COALESCE(json_extract(doc, '%s'), '') REGEXP ?`, path))
			args = append(args, q.Search)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}
