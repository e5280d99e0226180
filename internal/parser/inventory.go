package parser

import (
	"fmt"
	"log"
	"strings"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

// parseInventorySheet 解析库存统计表的两级表头
// 第 1 行为主表头，第 2 行为子表头；同一列子表头非空时覆盖主表头，
// 两级都为空的列命名为 未命名列<下标> 并整列丢弃。数据从第 3 行开始。
func (p *Parser) parseInventorySheet(sheet string) ([]model.Record, error) {
	rows, err := p.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 3 {
		return nil, fmt.Errorf("sheet %s has no header rows", sheet)
	}

	main := rows[1]
	sub := rows[2]
	n := len(main)
	if len(sub) > n {
		n = len(sub)
	}

	headers := make([]string, n)
	for i := 0; i < n; i++ {
		switch {
		case NormalizeHeader(cellAt(sub, i)) != "":
			headers[i] = NormalizeHeader(cellAt(sub, i))
		case NormalizeHeader(cellAt(main, i)) != "":
			headers[i] = NormalizeHeader(cellAt(main, i))
		default:
			headers[i] = fmt.Sprintf("未命名列%d", i)
		}
	}
	log.Printf("%s 解析的表头: %v", sheet, headers)

	cols := make([]column, 0, n)
	for i, h := range headers {
		if strings.HasPrefix(h, "未命名列") {
			continue
		}
		cols = append(cols, column{index: i, header: h})
	}

	records := make([]model.Record, 0, len(rows)-3)
	for rowIdx := 3; rowIdx < len(rows); rowIdx++ {
		rec := p.parseInventoryRow(rows[rowIdx], cols)
		if rec == nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseInventoryRow 与其他表不同，库存统计保留空值字段（置 nil）
// 仅跳过整行全空的记录。
func (p *Parser) parseInventoryRow(row []string, cols []column) model.Record {
	raw := model.Record{}
	empty := true
	for _, col := range cols {
		v := cellAt(row, col.index)
		if v == "" {
			raw[col.header] = nil
			continue
		}
		raw[col.header] = v
		empty = false
	}
	if empty {
		return nil
	}

	rec := p.trans.Translate(raw)
	p.coerceNumbers(rec)
	return rec
}
