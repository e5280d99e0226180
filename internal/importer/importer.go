// Package importer 把解析产出的 JSON 数据全量导入文档数据库。
// 导入是替换式的：先清空集合再整体重建，然后按词典定义重建二级索引。
// 单表失败只记录，不阻断其余表。
package importer

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/dateparse"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/dict"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/docstore"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

// materialCodeFields 各表的物料编码字段，标准编码改写只作用于这些表
var materialCodeFields = map[string]string{
	model.TableMaterials:       "material_code",
	model.TablePurchaseParams:  "material_code",
	model.TablePurchaseInbound: "material_code",
	model.TableSalesOutbound:   "material_code",
	model.TableInventoryStats:  "material_code",
	model.TableReceiptDetails:  "material_code",
}

// TableReport 单表导入结果
type TableReport struct {
	Table    string `json:"table"`
	Records  int    `json:"records"`
	Mapped   int    `json:"mapped_codes,omitempty"`
	Unmapped int    `json:"unmapped_codes,omitempty"`
	Indexes  int    `json:"indexes"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// Importer 数据导入器
type Importer struct {
	store   *docstore.Store
	dict    *dict.Dictionary
	dates   *dateparse.Parser
	mapping map[string]string // 旧编码 -> 标准编码，nil 表示不做改写
}

// New 创建导入器
func New(store *docstore.Store, d *dict.Dictionary) *Importer {
	return &Importer{
		store: store,
		dict:  d,
		dates: dateparse.New(),
	}
}

// SetStandardCodeMapping 设置标准编码映射
func (im *Importer) SetStandardCodeMapping(mapping map[string]string) {
	im.mapping = mapping
}

// LoadStandardCodeMapping 从标准物料表文件加载编码映射
// 文件结构为 {"materials": [{"old_code": ..., "new_code": ...}, ...]}。
// 文件不存在时告警并返回空映射，不视为错误。
func LoadStandardCodeMapping(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("警告: 标准物料表文件不存在: %s", path)
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	var table struct {
		Materials []struct {
			OldCode string `json:"old_code"`
			NewCode string `json:"new_code"`
		} `json:"materials"`
	}
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("failed to parse mapping file: %w", err)
	}

	mapping := make(map[string]string, len(table.Materials))
	for _, m := range table.Materials {
		if m.OldCode != "" && m.NewCode != "" {
			mapping[m.OldCode] = m.NewCode
		}
	}
	log.Printf("成功加载标准编码映射: %d 条", len(mapping))
	return mapping, nil
}

// ImportTable 全量导入单表并重建索引
func (im *Importer) ImportTable(table string, records []model.Record) TableReport {
	report := TableReport{Table: table, Records: len(records)}

	if im.mapping != nil {
		report.Mapped, report.Unmapped = im.applyStandardCodes(table, records)
	}

	if schema, ok := im.dict.TableSchema(table); ok && len(schema.DateFields) > 0 {
		im.dates.NormalizeFields(records, schema.DateFields)
	}

	if err := im.store.ReplaceAll(table, records); err != nil {
		report.Error = err.Error()
		log.Printf("表 %s 导入失败: %v", table, err)
		return report
	}

	if schema, ok := im.dict.TableSchema(table); ok {
		if err := im.store.EnsureIndexes(table, schema.Indexes); err != nil {
			report.Error = fmt.Sprintf("index rebuild failed: %v", err)
			log.Printf("表 %s 索引重建失败: %v", table, err)
			return report
		}
		report.Indexes = len(schema.Indexes)
	}

	report.Success = true
	log.Printf("表 %s 导入成功: %d 条记录, %d 个索引", table, len(records), report.Indexes)
	return report
}

// applyStandardCodes 标准编码改写
// 命中映射的记录保留原编码到 original_<字段>，并打 standard_code_applied
// 标记；未命中的记录记下 unmapped_code。不带编码字段的记录不动。
func (im *Importer) applyStandardCodes(table string, records []model.Record) (mapped, unmapped int) {
	field, ok := materialCodeFields[table]
	if !ok {
		return 0, 0
	}
	for _, rec := range records {
		oldCode := rec.GetString(field)
		if oldCode == "" {
			continue
		}
		if newCode, ok := im.mapping[oldCode]; ok {
			rec["original_"+field] = oldCode
			rec[field] = newCode
			rec["standard_code_applied"] = true
			mapped++
		} else {
			rec["standard_code_applied"] = false
			rec["unmapped_code"] = oldCode
			unmapped++
		}
	}
	if mapped > 0 || unmapped > 0 {
		log.Printf("表 %s 标准编码改写: 已映射 %d, 未映射 %d", table, mapped, unmapped)
	}
	return mapped, unmapped
}
