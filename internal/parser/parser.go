// Package parser 把进销存工作簿的各业务 Sheet 解析为英文字段记录。
// 每张表遵循固定的表头约定：第 0 行为表名，第 1 行为列名（库存统计表
// 为两级表头），数据从其后开始。
package parser

import (
	"fmt"
	"log"

	"github.com/xuri/excelize/v2"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/dateparse"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/dict"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/filter"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

// Catalog 物料目录查询接口，用于入库/出库明细的物料编码回填
type Catalog interface {
	// MaterialCodeByNameModel 按 (物料名称, 规格型号) 精确匹配查找编码
	MaterialCodeByNameModel(name, model string) (string, bool)
	// MaterialCodeExists 判断编码是否已在目录中定义
	MaterialCodeExists(code string) bool
}

// Parser 工作簿解析器
type Parser struct {
	file    *excelize.File
	dict    *dict.Dictionary
	trans   *dict.Translator
	dates   *dateparse.Parser
	catalog Catalog // 可为 nil，此时跳过编码回填
}

// New 创建解析器；catalog 传 nil 时不做物料编码回填
func New(file *excelize.File, d *dict.Dictionary, catalog Catalog) *Parser {
	return &Parser{
		file:    file,
		dict:    d,
		trans:   dict.NewTranslator(d),
		dates:   dateparse.New(),
		catalog: catalog,
	}
}

// ParseTable 解析指定业务表对应的 Sheet
func (p *Parser) ParseTable(table string) ([]model.Record, error) {
	sheet, ok := model.SheetNames[table]
	if !ok {
		return nil, fmt.Errorf("unknown table: %s", table)
	}
	schema, ok := p.dict.TableSchema(table)
	if !ok {
		return nil, fmt.Errorf("no schema for table: %s", table)
	}

	var (
		records []model.Record
		err     error
	)
	if table == model.TableInventoryStats {
		records, err = p.parseInventorySheet(sheet)
	} else {
		records, err = p.parseSheet(sheet)
	}
	if err != nil {
		return nil, err
	}

	if p.needsCodeBackfill(table) {
		p.backfillMaterialCodes(records)
	}

	if len(schema.DateFields) > 0 {
		stats := p.dates.NormalizeFields(records, schema.DateFields)
		log.Printf("%s 日期字段处理完成: 解析 %d, 置空 %d, 保留 %d",
			sheet, stats.Parsed, stats.Cleared, stats.Unchanged)
	}

	records = p.applyFilter(table, schema, records)
	log.Printf("成功解析 %d 条 %s 记录", len(records), sheet)
	return records, nil
}

// parseSheet 解析单级表头的 Sheet：第 1 行为列名，数据从第 2 行开始
func (p *Parser) parseSheet(sheet string) ([]model.Record, error) {
	rows, err := p.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %s has no header row", sheet)
	}

	cols := validColumns(rows[1])
	if dropped := len(rows[1]) - len(cols); dropped > 0 {
		log.Printf("警告: %s 移除了 %d 个无效表头列", sheet, dropped)
	}

	records := make([]model.Record, 0, len(rows)-2)
	for rowIdx := 2; rowIdx < len(rows); rowIdx++ {
		rec := p.parseRow(rows[rowIdx], cols)
		if rec == nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseRow 解析一行数据：去空值、译字段名、数值列转数值；空行返回 nil
func (p *Parser) parseRow(row []string, cols []column) model.Record {
	raw := model.Record{}
	for _, col := range cols {
		if v := cellAt(row, col.index); v != "" {
			raw[col.header] = v
		}
	}
	if len(raw) == 0 {
		return nil
	}

	rec := p.trans.Translate(raw)
	p.coerceNumbers(rec)
	return rec
}

// coerceNumbers 把词典标记为数值型的字段从文本转为 float64
// 编码类字段（如带前导零的 "01"）在词典中是字符串型，不受影响。
func (p *Parser) coerceNumbers(rec model.Record) {
	for key, value := range rec {
		s, ok := value.(string)
		if !ok {
			continue
		}
		chinese := p.dict.ChineseField(key)
		if chinese == "" {
			continue
		}
		info, ok := p.dict.FieldInfo(chinese)
		if !ok || info.DataType != "number" {
			continue
		}
		if f, ok := parseNumber(s); ok {
			rec[key] = f
		} else {
			log.Printf("警告: 字段 '%s' 的值 '%s' 无法转换为数值", key, s)
		}
	}
}

// needsCodeBackfill 入库/出库明细需要物料编码回填
func (p *Parser) needsCodeBackfill(table string) bool {
	if p.catalog == nil {
		return false
	}
	return table == model.TablePurchaseInbound || table == model.TableSalesOutbound
}

func (p *Parser) applyFilter(table string, schema dict.TableSchema, records []model.Record) []model.Record {
	switch table {
	case model.TableSuppliers:
		kept, _ := filter.FilterSuppliers(records)
		return kept
	case model.TableCustomers:
		kept, _ := filter.FilterCustomers(records)
		return kept
	default:
		if len(schema.RequiredAny) > 0 {
			kept, _ := filter.FilterRequireAny(records, schema.RequiredAny)
			return kept
		}
		kept, _ := filter.FilterEmpty(records, nil, nil)
		return kept
	}
}
