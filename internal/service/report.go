package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/docstore"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

// ReportOptions 报表过滤条件
type ReportOptions struct {
	CounterpartyName string // 指定客户/供应商名称，为空查全部
	StartDate        string // YYYY-MM-DD，作用于业务日期下界
	EndDate          string // YYYY-MM-DD，上界
}

// ReceivableRow 应收账款报表行
type ReceivableRow struct {
	CustomerName       string  `json:"customer_name"`
	CustomerContact    string  `json:"customer_contact,omitempty"`
	CustomerPhone      string  `json:"customer_phone,omitempty"`
	CustomerAddress    string  `json:"customer_address,omitempty"`
	TotalSalesAmount   float64 `json:"total_sales_amount"`
	TotalReceiptAmount float64 `json:"total_receipt_amount"`
	ReceivableBalance  float64 `json:"receivable_balance"`
	SalesCount         int     `json:"sales_count"`
	ReceiptCount       int     `json:"receipt_count"`
	LatestSalesDate    string  `json:"latest_sales_date,omitempty"`
	LatestReceiptDate  string  `json:"latest_receipt_date,omitempty"`
	AgeDays            int     `json:"age_days"`
	AgeRange           string  `json:"age_range"`
	RiskLevel          string  `json:"risk_level"`
	GeneratedDate      string  `json:"generated_date"`
}

// PayableRow 应付账款报表行
type PayableRow struct {
	SupplierName        string  `json:"supplier_name"`
	SupplierContact     string  `json:"supplier_contact,omitempty"`
	SupplierPhone       string  `json:"supplier_phone,omitempty"`
	SupplierAddress     string  `json:"supplier_address,omitempty"`
	TotalPurchaseAmount float64 `json:"total_purchase_amount"`
	TotalPaymentAmount  float64 `json:"total_payment_amount"`
	PayableBalance      float64 `json:"payable_balance"`
	PurchaseCount       int     `json:"purchase_count"`
	PaymentCount        int     `json:"payment_count"`
	LatestPurchaseDate  string  `json:"latest_purchase_date,omitempty"`
	LatestPaymentDate   string  `json:"latest_payment_date,omitempty"`
	AgeDays             int     `json:"age_days"`
	AgeRange            string  `json:"age_range"`
	RiskLevel           string  `json:"risk_level"`
	GeneratedDate       string  `json:"generated_date"`
}

// ReportSummary 报表汇总统计
type ReportSummary struct {
	TotalBalance      float64            `json:"total_balance"`
	CounterpartyCount int                `json:"counterparty_count"`
	OverdueAmount     float64            `json:"overdue_amount"`
	OverdueCount      int                `json:"overdue_count"`
	OverdueRate       float64            `json:"overdue_rate"`
	AgeDistribution   map[string]float64 `json:"age_distribution"`
	RiskDistribution  map[string]float64 `json:"risk_distribution"`
}

// ReceivablesReport 应收账款报表
type ReceivablesReport struct {
	Data    []ReceivableRow `json:"data"`
	Summary ReportSummary   `json:"summary"`
}

// PayablesReport 应付账款报表
type PayablesReport struct {
	Data    []PayableRow  `json:"data"`
	Summary ReportSummary `json:"summary"`
}

// counterpartyAgg 单个往来单位的双向聚合
type counterpartyAgg struct {
	name       string
	saleSum    float64
	saleCount  int
	saleMax    string
	paySum     float64
	payCount   int
	payMax     string
}

// GenerateReceivablesReport 基于销售出库与收款明细生成应收账款报表
// 以客户为分组键做两侧聚合，余额 = 累计销售 - 累计收款；账龄取最近
// 销售日期距今天数，行按应收余额降序。
func (s *Services) GenerateReceivablesReport(opts ReportOptions) (*ReceivablesReport, error) {
	aggs, err := s.aggregateBothSides(
		model.TableSalesOutbound, "customer_name", "outbound_amount", "outbound_date",
		model.TableReceiptDetails, "customer_name", "amount", "receipt_date", opts)
	if err != nil {
		return nil, err
	}

	now := time.Now().Format(time.RFC3339)
	rows := make([]ReceivableRow, 0, len(aggs))
	for _, agg := range aggs {
		ageDays := ageDaysSince(agg.saleMax)
		balance := round2(agg.saleSum - agg.paySum)
		row := ReceivableRow{
			CustomerName:       agg.name,
			TotalSalesAmount:   round2(agg.saleSum),
			TotalReceiptAmount: round2(agg.paySum),
			ReceivableBalance:  balance,
			SalesCount:         agg.saleCount,
			ReceiptCount:       agg.payCount,
			LatestSalesDate:    agg.saleMax,
			LatestReceiptDate:  agg.payMax,
			AgeDays:            ageDays,
			AgeRange:           ageRange(ageDays),
			RiskLevel:          riskLevel(balance, ageDays),
			GeneratedDate:      now,
		}
		if rec, err := s.store.FindOne(model.TableCustomers, map[string]any{"customer_name": agg.name}); err == nil {
			if customer, err := model.CustomerFromRecord(rec); err == nil {
				row.CustomerContact = customer.ContactPerson
				row.CustomerPhone = customer.Phone
				row.CustomerAddress = customer.Address
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ReceivableBalance > rows[j].ReceivableBalance })

	summary := ReportSummary{AgeDistribution: map[string]float64{}, RiskDistribution: map[string]float64{}}
	for _, row := range rows {
		summary.TotalBalance += row.ReceivableBalance
		if row.ReceivableBalance > 0 {
			summary.CounterpartyCount++
			summary.AgeDistribution[row.AgeRange] += row.ReceivableBalance
			summary.RiskDistribution[row.RiskLevel] += row.ReceivableBalance
			if row.AgeDays > 30 {
				summary.OverdueCount++
			}
		}
		if row.AgeDays > 30 {
			summary.OverdueAmount += row.ReceivableBalance
		}
	}
	finishSummary(&summary)
	return &ReceivablesReport{Data: rows, Summary: summary}, nil
}

// GeneratePayablesReport 基于进货入库与付款明细生成应付账款报表
func (s *Services) GeneratePayablesReport(opts ReportOptions) (*PayablesReport, error) {
	aggs, err := s.aggregateBothSides(
		model.TablePurchaseInbound, "supplier_name", "amount", "inbound_date",
		model.TablePaymentDetails, "supplier_name", "amount", "payment_date", opts)
	if err != nil {
		return nil, err
	}

	now := time.Now().Format(time.RFC3339)
	rows := make([]PayableRow, 0, len(aggs))
	for _, agg := range aggs {
		ageDays := ageDaysSince(agg.saleMax)
		balance := round2(agg.saleSum - agg.paySum)
		row := PayableRow{
			SupplierName:        agg.name,
			TotalPurchaseAmount: round2(agg.saleSum),
			TotalPaymentAmount:  round2(agg.paySum),
			PayableBalance:      balance,
			PurchaseCount:       agg.saleCount,
			PaymentCount:        agg.payCount,
			LatestPurchaseDate:  agg.saleMax,
			LatestPaymentDate:   agg.payMax,
			AgeDays:             ageDays,
			AgeRange:            ageRange(ageDays),
			RiskLevel:           riskLevel(balance, ageDays),
			GeneratedDate:       now,
		}
		if rec, err := s.store.FindOne(model.TableSuppliers, map[string]any{"supplier_name": agg.name}); err == nil {
			if supplier, err := model.SupplierFromRecord(rec); err == nil {
				row.SupplierContact = supplier.ContactPerson
				row.SupplierPhone = supplier.Phone
				row.SupplierAddress = supplier.Address
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].PayableBalance > rows[j].PayableBalance })

	summary := ReportSummary{AgeDistribution: map[string]float64{}, RiskDistribution: map[string]float64{}}
	for _, row := range rows {
		summary.TotalBalance += row.PayableBalance
		if row.PayableBalance > 0 {
			summary.CounterpartyCount++
			summary.AgeDistribution[row.AgeRange] += row.PayableBalance
			summary.RiskDistribution[row.RiskLevel] += row.PayableBalance
			if row.AgeDays > 30 {
				summary.OverdueCount++
			}
		}
		if row.AgeDays > 30 {
			summary.OverdueAmount += row.PayableBalance
		}
	}
	finishSummary(&summary)
	return &PayablesReport{Data: rows, Summary: summary}, nil
}

// aggregateBothSides 业务侧（销售/进货）与资金侧（收款/付款）各做一次
// 分组聚合后按往来单位名称合并。日期范围只约束业务侧。
func (s *Services) aggregateBothSides(
	bizTable, keyField, bizSumField, bizDateField,
	cashTable, cashKeyField, cashSumField, cashDateField string,
	opts ReportOptions) ([]counterpartyAgg, error) {

	bizOpts := docstore.AggregateOptions{
		Key:      opts.CounterpartyName,
		DateFrom: opts.StartDate,
		DateTo:   endOfDayBound(opts.EndDate),
	}
	biz, err := s.store.GroupSumMax(bizTable, keyField, bizSumField, bizDateField, bizOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", bizTable, err)
	}
	cash, err := s.store.GroupSumMax(cashTable, cashKeyField, cashSumField, cashDateField,
		docstore.AggregateOptions{Key: opts.CounterpartyName})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", cashTable, err)
	}

	names := make(map[string]struct{}, len(biz)+len(cash))
	for name := range biz {
		names[name] = struct{}{}
	}
	for name := range cash {
		names[name] = struct{}{}
	}

	aggs := make([]counterpartyAgg, 0, len(names))
	for name := range names {
		b := biz[name]
		c := cash[name]
		aggs = append(aggs, counterpartyAgg{
			name:      name,
			saleSum:   b.Sum,
			saleCount: b.Count,
			saleMax:   b.MaxDate,
			paySum:    c.Sum,
			payCount:  c.Count,
			payMax:    c.MaxDate,
		})
	}
	return aggs, nil
}

// ageDaysSince 距最近业务日期的天数，无日期或解析失败按 0 计
func ageDaysSince(latest string) int {
	if latest == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339, latest)
	if err != nil {
		if t, err = time.Parse("2006-01-02", latest); err != nil {
			return 0
		}
	}
	days := int(time.Since(t).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func ageRange(ageDays int) string {
	switch {
	case ageDays <= 30:
		return "30天以内"
	case ageDays <= 60:
		return "31-60天"
	case ageDays <= 90:
		return "61-90天"
	case ageDays <= 180:
		return "91-180天"
	default:
		return "180天以上"
	}
}

func riskLevel(balance float64, ageDays int) string {
	switch {
	case balance <= 0:
		return "无风险"
	case ageDays <= 30:
		return "低风险"
	case ageDays <= 90:
		return "中风险"
	default:
		return "高风险"
	}
}

func finishSummary(summary *ReportSummary) {
	summary.TotalBalance = round2(summary.TotalBalance)
	summary.OverdueAmount = round2(summary.OverdueAmount)
	if summary.TotalBalance > 0 {
		summary.OverdueRate = round2(summary.OverdueAmount / summary.TotalBalance * 100)
	}
}

// endOfDayBound 把 YYYY-MM-DD 上界扩到当天末尾，覆盖带时间的存储值
func endOfDayBound(date string) string {
	if date == "" {
		return ""
	}
	if len(date) == 10 {
		return date + "T23:59:59Z"
	}
	return date
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
