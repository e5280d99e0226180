package service

import (
	"fmt"
	"time"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/docstore"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

// ListResult 分页列表结果
type ListResult struct {
	Data  []model.Record `json:"data"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// AddResult 新增结果
type AddResult struct {
	Success    bool   `json:"success"`
	InsertedID string `json:"inserted_id"`
}

// MutationResult 更新/删除结果
type MutationResult struct {
	Success      bool `json:"success"`
	DeletedCount int  `json:"deleted_count,omitempty"`
}

// ListEntities 分页列出实体记录，支持跨字段的不区分大小写模糊检索，
// sortBy 指定排序字段（为空不排序），sortDesc 为 true 时降序。
func (s *Services) ListEntities(table string, page, limit int, search, sortBy string, sortDesc bool) (*ListResult, error) {
	if err := entityTable(table); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	q := docstore.Query{
		Search:       search,
		SearchFields: entitySearchFields[table],
		SortBy:       sortBy,
		SortDesc:     sortDesc,
		Skip:         (page - 1) * limit,
		Limit:        limit,
	}
	total, err := s.store.Count(table, q)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", table, err)
	}
	records, err := s.store.Find(table, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	if records == nil {
		records = []model.Record{}
	}
	return &ListResult{Data: records, Total: total, Page: page, Limit: limit}, nil
}

// AddEntity 新增实体记录并打创建/更新时间戳
func (s *Services) AddEntity(table string, data model.Record) (*AddResult, error) {
	if err := entityTable(table); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty record", ErrInvalidInput)
	}

	now := time.Now()
	rec := data.Clone()
	delete(rec, "_id")
	rec["created_at"] = now
	rec["updated_at"] = now

	if err := s.store.InsertMany(table, []model.Record{rec}); err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return &AddResult{Success: true, InsertedID: rec.GetString("_id")}, nil
}

// UpdateEntity 按 _id 更新指定字段并刷新 updated_at
func (s *Services) UpdateEntity(table, id string, data model.Record) (*MutationResult, error) {
	if err := entityTable(table); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("%w: missing record id", ErrInvalidInput)
	}

	fields := make(map[string]any, len(data)+1)
	for k, v := range data {
		if k == "_id" {
			continue
		}
		fields[k] = v
	}
	fields["updated_at"] = time.Now()

	if err := s.store.UpdateByID(table, id, fields); err != nil {
		return nil, err
	}
	return &MutationResult{Success: true}, nil
}

// DeleteEntity 按 _id 删除单条记录
func (s *Services) DeleteEntity(table, id string) (*MutationResult, error) {
	if err := entityTable(table); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("%w: missing record id", ErrInvalidInput)
	}
	if err := s.store.DeleteByID(table, id); err != nil {
		return nil, err
	}
	return &MutationResult{Success: true, DeletedCount: 1}, nil
}

// BatchDeleteEntities 批量删除，返回实际删除条数
func (s *Services) BatchDeleteEntities(table string, ids []string) (*MutationResult, error) {
	if err := entityTable(table); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: empty id list", ErrInvalidInput)
	}
	deleted, err := s.store.DeleteByIDs(table, ids)
	if err != nil {
		return nil, err
	}
	return &MutationResult{Success: true, DeletedCount: deleted}, nil
}
