package service

import (
	"fmt"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/docstore"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

const (
	defaultQueryLimit = 100
	maxQueryLimit     = 1000
)

// QueryResult 表查询结果
type QueryResult struct {
	Data      []model.Record `json:"data"`
	Total     int            `json:"total"`
	Displayed int            `json:"displayed"`
	Limit     int            `json:"limit"`
	Message   string         `json:"message,omitempty"`
}

// QueryTable 查询任意集合的前 N 条文档
func (s *Services) QueryTable(table string, limit int) (*QueryResult, error) {
	if limit < 1 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	names, err := s.store.Collections()
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	exists := false
	for _, name := range names {
		if name == table {
			exists = true
			break
		}
	}
	if !exists {
		return nil, fmt.Errorf("%w: 表 %s 不存在", ErrInvalidInput, table)
	}

	total, err := s.store.Count(table, docstore.Query{})
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", table, err)
	}
	result := &QueryResult{Data: []model.Record{}, Total: total, Limit: limit}
	if total == 0 {
		result.Message = fmt.Sprintf("表 %s 暂无数据", table)
		return result, nil
	}

	records, err := s.store.Find(table, docstore.Query{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	result.Data = records
	result.Displayed = len(records)
	return result, nil
}

// MaterialView 树视图用的物料投影
type MaterialView struct {
	ID            string `json:"_id"`
	MaterialCode  string `json:"material_code"`
	MaterialName  string `json:"material_name"`
	MaterialModel string `json:"material_model,omitempty"`
	Unit          string `json:"unit,omitempty"`
}

// MaterialsForView 按编码排序返回物料树视图数据
func (s *Services) MaterialsForView() ([]MaterialView, error) {
	records, err := s.store.Find(model.TableMaterials, docstore.Query{SortBy: "material_code"})
	if err != nil {
		return nil, fmt.Errorf("failed to query materials: %w", err)
	}

	views := make([]MaterialView, 0, len(records))
	for _, rec := range records {
		views = append(views, MaterialView{
			ID:            rec.GetString("_id"),
			MaterialCode:  rec.GetString("material_code"),
			MaterialName:  rec.GetString("material_name"),
			MaterialModel: rec.GetString("material_model"),
			Unit:          rec.GetString("unit"),
		})
	}
	return views, nil
}
