package service

import (
	"fmt"
	"time"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/docstore"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

const defaultLowStockThreshold = 10

// InventoryRow 库存报表行
type InventoryRow struct {
	MaterialCode  string  `json:"material_code"`
	MaterialName  string  `json:"material_name"`
	Specification string  `json:"specification,omitempty"`
	Unit          string  `json:"unit,omitempty"`
	StockQuantity float64 `json:"stock_quantity"`
	StockAmount   float64 `json:"stock_amount"`
	SafetyStock   float64 `json:"safety_stock,omitempty"`
	StockStatus   string  `json:"stock_status"`
	GeneratedDate string  `json:"generated_date"`
}

// InventorySummary 库存报表汇总
type InventorySummary struct {
	ItemCount       int     `json:"item_count"`
	TotalQuantity   float64 `json:"total_quantity"`
	TotalAmount     float64 `json:"total_amount"`
	OutOfStockCount int     `json:"out_of_stock_count"`
	LowStockCount   int     `json:"low_stock_count"`
}

// InventoryReport 库存报表
type InventoryReport struct {
	Data    []InventoryRow   `json:"data"`
	Summary InventorySummary `json:"summary"`
}

// GenerateInventoryReport 基于库存统计表生成库存报表
// nameFilter 非空时按物料名称做不区分大小写的模糊过滤。库存状态：
// 数量 <=0 为缺货，低于安全库存（未设置时按默认阈值）为低库存。
func (s *Services) GenerateInventoryReport(nameFilter string) (*InventoryReport, error) {
	q := docstore.Query{SortBy: "material_code"}
	if nameFilter != "" {
		q.Search = nameFilter
		q.SearchFields = []string{"material_name"}
	}
	records, err := s.store.Find(model.TableInventoryStats, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory stats: %w", err)
	}

	now := time.Now().Format(time.RFC3339)
	rows := make([]InventoryRow, 0, len(records))
	summary := InventorySummary{}
	for _, rec := range records {
		row := InventoryRow{
			MaterialCode:  rec.GetString("material_code"),
			MaterialName:  rec.GetString("material_name"),
			Specification: rec.GetString("specification"),
			Unit:          rec.GetString("unit"),
			StockQuantity: rec.GetFloat("stock_quantity"),
			StockAmount:   round2(rec.GetFloat("stock_amount")),
			SafetyStock:   rec.GetFloat("safety_stock"),
			GeneratedDate: now,
		}
		row.StockStatus = stockStatus(row.StockQuantity, row.SafetyStock)
		rows = append(rows, row)

		summary.ItemCount++
		summary.TotalQuantity += row.StockQuantity
		summary.TotalAmount += row.StockAmount
		switch row.StockStatus {
		case "缺货":
			summary.OutOfStockCount++
		case "低库存":
			summary.LowStockCount++
		}
	}
	summary.TotalAmount = round2(summary.TotalAmount)
	return &InventoryReport{Data: rows, Summary: summary}, nil
}

func stockStatus(quantity, safetyStock float64) string {
	threshold := safetyStock
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}
	switch {
	case quantity <= 0:
		return "缺货"
	case quantity <= threshold:
		return "低库存"
	default:
		return "正常"
	}
}
