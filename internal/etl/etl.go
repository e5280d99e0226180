// Package etl 解析编排：依次运行全部表解析器并落盘 JSON 结果。
// 单表失败不中断整个流程，该表记为空结果，部分成功是正常结束状态。
package etl

import (
	"fmt"
	"log"

	"github.com/xuri/excelize/v2"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/dict"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/parser"
)

// Result 一次完整解析的汇总
type Result struct {
	Tables       map[string][]model.Record
	FailedTables []string
	TotalRecords int
}

// Orchestrator 解析编排器
type Orchestrator struct {
	dict    *dict.Dictionary
	catalog parser.Catalog
}

// New 创建编排器；catalog 可为 nil（跳过物料编码回填）
func New(d *dict.Dictionary, catalog parser.Catalog) *Orchestrator {
	return &Orchestrator{dict: d, catalog: catalog}
}

// ParseWorkbook 解析工作簿中的全部业务表
// 工作簿打不开是致命错误；单表解析失败只记录，不中断其余表。
func (o *Orchestrator) ParseWorkbook(path string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	p := parser.New(f, o.dict, o.catalog)
	result := &Result{Tables: make(map[string][]model.Record, len(model.TableOrder))}

	for _, table := range model.TableOrder {
		records, err := p.ParseTable(table)
		if err != nil {
			log.Printf("解析工作表失败: %s: %v", table, err)
			result.Tables[table] = []model.Record{}
			result.FailedTables = append(result.FailedTables, table)
			continue
		}
		result.Tables[table] = records
		result.TotalRecords += len(records)
	}

	log.Printf("Excel解析完成: 成功 %d 表, 失败 %d 表, 共 %d 条记录",
		len(model.TableOrder)-len(result.FailedTables), len(result.FailedTables), result.TotalRecords)
	return result, nil
}
