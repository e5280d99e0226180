// Package docstore 基于 SQLite 的文档集合存储。
// 每个集合一张表，文档作为 JSON 串保存，二级索引建立在
// json_extract 表达式上；正则检索通过注册 REGEXP 函数实现。
package docstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

// ErrNotFound 目标文档不存在
var ErrNotFound = errors.New("document not found")

const driverName = "sqlite3_docstore"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			// 不区分大小写的正则匹配，供检索使用
			return conn.RegisterFunc("regexp", regexpMatch, true)
		},
	})
}

func regexpMatch(pattern, value string) (bool, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(value), nil
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store 文档数据库
type Store struct {
	db *sql.DB
}

// Open 打开（必要时创建）数据库文件
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open(driverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite 建议单连接
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{db: db}, nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// EnsureCollection 确保集合表存在
func (s *Store) EnsureCollection(name string) error {
	if err := validateIdent(name); err != nil {
		return err
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
		_id TEXT PRIMARY KEY,
		doc TEXT NOT NULL
	)`, name)
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	return nil
}

// Collections 列出已存在的集合名
func (s *Store) Collections() ([]string, error) {
	rows, err := s.db.Query(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan collection name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// InsertMany 批量插入文档，缺少 _id 的自动分配 uuid
func (s *Store) InsertMany(collection string, records []model.Record) error {
	if err := s.EnsureCollection(collection); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertManyTx(tx, collection, records); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ReplaceAll 清空集合后整体重建（全量替换式导入）
func (s *Store) ReplaceAll(collection string, records []model.Record) error {
	if err := s.EnsureCollection(collection); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %q`, collection)); err != nil {
		return fmt.Errorf("failed to clear collection %s: %w", collection, err)
	}
	if err := insertManyTx(tx, collection, records); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertManyTx(tx *sql.Tx, collection string, records []model.Record) error {
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO %q (_id, doc) VALUES (?, ?)`, collection))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		id := rec.GetString("_id")
		if id == "" {
			id = uuid.NewString()
			rec["_id"] = id
		}
		doc, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}
		if _, err := stmt.Exec(id, string(doc)); err != nil {
			return fmt.Errorf("failed to insert document: %w", err)
		}
	}
	return nil
}

// UpdateByID 合并写入指定字段；文档不存在时返回 ErrNotFound
func (s *Store) UpdateByID(collection, id string, fields map[string]any) error {
	if err := s.EnsureCollection(collection); err != nil {
		return err
	}

	var raw string
	row := s.db.QueryRow(fmt.Sprintf(`SELECT doc FROM %q WHERE _id = ?`, collection), id)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load document: %w", err)
	}

	var rec model.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return fmt.Errorf("failed to unmarshal document: %w", err)
	}
	for k, v := range fields {
		if k == "_id" {
			continue
		}
		rec[k] = v
	}

	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if _, err := s.db.Exec(
		fmt.Sprintf(`UPDATE %q SET doc = ? WHERE _id = ?`, collection), string(doc), id); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

// DeleteByID 删除单个文档；不存在时返回 ErrNotFound
func (s *Store) DeleteByID(collection, id string) error {
	if err := s.EnsureCollection(collection); err != nil {
		return err
	}
	res, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %q WHERE _id = ?`, collection), id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByIDs 批量删除，返回实际删除的条数
func (s *Store) DeleteByIDs(collection string, ids []string) (int, error) {
	if err := s.EnsureCollection(collection); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(fmt.Sprintf(`DELETE FROM %q WHERE _id = ?`, collection))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	deleted := 0
	for _, id := range ids {
		res, err := stmt.Exec(id)
		if err != nil {
			return 0, fmt.Errorf("failed to delete document: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read rows affected: %w", err)
		}
		deleted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return deleted, nil
}

func validateIdent(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("invalid identifier: %q", name)
	}
	return nil
}

func fieldPath(field string) (string, error) {
	if !identRe.MatchString(field) {
		return "", fmt.Errorf("invalid field name: %q", field)
	}
	return "$." + field, nil
}
