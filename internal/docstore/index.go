package docstore

import (
	"fmt"
	"strings"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/dict"
)

// EnsureIndexes 按定义重建集合的二级索引
// 先删除本集合既有的 idx_ 前缀索引再逐个创建，保证导入后索引与定义一致。
func (s *Store) EnsureIndexes(collection string, specs []dict.IndexSpec) error {
	if err := s.EnsureCollection(collection); err != nil {
		return err
	}

	if err := s.dropIndexes(collection); err != nil {
		return err
	}

	for _, spec := range specs {
		if len(spec.Fields) == 0 {
			continue
		}
		exprs := make([]string, 0, len(spec.Fields))
		for _, field := range spec.Fields {
			path, err := fieldPath(field)
			if err != nil {
				return err
			}
			exprs = append(exprs, fmt.Sprintf(`json_extract(doc, '%s')`, path))
		}

		unique := ""
		if spec.Unique {
			unique = "UNIQUE "
		}
		name := fmt.Sprintf("idx_%s_%s", collection, strings.Join(spec.Fields, "_"))
		ddl := fmt.Sprintf(`CREATE %sINDEX IF NOT EXISTS %q ON %q (%s)`,
			unique, name, collection, strings.Join(exprs, ", "))
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("failed to create index %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) dropIndexes(collection string) error {
	rows, err := s.db.Query(
		`SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ? AND name LIKE 'idx_%'`,
		collection)
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan index name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range names {
		if !identRe.MatchString(name) {
			continue
		}
		if _, err := s.db.Exec(fmt.Sprintf(`DROP INDEX IF EXISTS %q`, name)); err != nil {
			return fmt.Errorf("failed to drop index %s: %w", name, err)
		}
	}
	return nil
}
