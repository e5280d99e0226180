package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/docstore"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

// SupplierReconciliationRow 供应商对账单行
type SupplierReconciliationRow struct {
	SupplierName        string  `json:"supplier_name"`
	TaxNumber           string  `json:"tax_number,omitempty"`
	Contact             string  `json:"contact,omitempty"`
	Phone               string  `json:"phone,omitempty"`
	TotalPurchaseAmount float64 `json:"total_purchase_amount"`
	TotalPaymentAmount  float64 `json:"total_payment_amount"`
	Balance             float64 `json:"balance"`
	PurchaseCount       int     `json:"purchase_count"`
	PaymentCount        int     `json:"payment_count"`
	LatestPurchaseDate  string  `json:"latest_purchase_date,omitempty"`
	LatestPaymentDate   string  `json:"latest_payment_date,omitempty"`
	Status              string  `json:"status"`
	GeneratedDate       string  `json:"generated_date"`
}

// CustomerReconciliationRow 客户对账单行
type CustomerReconciliationRow struct {
	CustomerName       string  `json:"customer_name"`
	TaxNumber          string  `json:"tax_number,omitempty"`
	Contact            string  `json:"contact,omitempty"`
	Phone              string  `json:"phone,omitempty"`
	Address            string  `json:"address,omitempty"`
	TotalSalesAmount   float64 `json:"total_sales_amount"`
	TotalReceiptAmount float64 `json:"total_receipt_amount"`
	Balance            float64 `json:"balance"`
	SalesCount         int     `json:"sales_count"`
	ReceiptCount       int     `json:"receipt_count"`
	LatestSalesDate    string  `json:"latest_sales_date,omitempty"`
	LatestReceiptDate  string  `json:"latest_receipt_date,omitempty"`
	Status             string  `json:"status"`
	GeneratedDate      string  `json:"generated_date"`
}

// GenerateSupplierReconciliation 生成供应商对账单
// 行集合以供应商档案为准，无业务往来的供应商也出现在对账单里；
// 日期范围同时约束进货侧与付款侧。余额为负记“超付”。
func (s *Services) GenerateSupplierReconciliation(opts ReportOptions) ([]SupplierReconciliationRow, error) {
	q := docstore.Query{SortBy: "supplier_name"}
	if opts.CounterpartyName != "" {
		q.Filter = map[string]any{"supplier_name": opts.CounterpartyName}
	}
	records, err := s.store.Find(model.TableSuppliers, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}

	aggOpts := docstore.AggregateOptions{
		Key:      opts.CounterpartyName,
		DateFrom: opts.StartDate,
		DateTo:   endOfDayBound(opts.EndDate),
	}
	purchases, err := s.store.GroupSumMax(model.TablePurchaseInbound, "supplier_name", "amount", "inbound_date", aggOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate purchases: %w", err)
	}
	payments, err := s.store.GroupSumMax(model.TablePaymentDetails, "supplier_name", "amount", "payment_date", aggOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate payments: %w", err)
	}

	now := time.Now().Format(time.RFC3339)
	rows := make([]SupplierReconciliationRow, 0, len(records))
	for _, rec := range records {
		supplier, err := model.SupplierFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to decode supplier: %w", err)
		}
		p := purchases[supplier.SupplierName]
		pay := payments[supplier.SupplierName]
		balance := round2(p.Sum - pay.Sum)
		status := "正常"
		if balance < 0 {
			status = "超付"
		}
		rows = append(rows, SupplierReconciliationRow{
			SupplierName:        supplier.SupplierName,
			TaxNumber:           supplier.TaxNumber,
			Contact:             supplier.ContactPerson,
			Phone:               supplier.Phone,
			TotalPurchaseAmount: round2(p.Sum),
			TotalPaymentAmount:  round2(pay.Sum),
			Balance:             balance,
			PurchaseCount:       p.Count,
			PaymentCount:        pay.Count,
			LatestPurchaseDate:  p.MaxDate,
			LatestPaymentDate:   pay.MaxDate,
			Status:              status,
			GeneratedDate:       now,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Balance > rows[j].Balance })
	return rows, nil
}

// GenerateCustomerReconciliation 生成客户对账单，余额为负记“超收”
func (s *Services) GenerateCustomerReconciliation(opts ReportOptions) ([]CustomerReconciliationRow, error) {
	q := docstore.Query{SortBy: "customer_name"}
	if opts.CounterpartyName != "" {
		q.Filter = map[string]any{"customer_name": opts.CounterpartyName}
	}
	records, err := s.store.Find(model.TableCustomers, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	aggOpts := docstore.AggregateOptions{
		Key:      opts.CounterpartyName,
		DateFrom: opts.StartDate,
		DateTo:   endOfDayBound(opts.EndDate),
	}
	sales, err := s.store.GroupSumMax(model.TableSalesOutbound, "customer_name", "outbound_amount", "outbound_date", aggOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales: %w", err)
	}
	receipts, err := s.store.GroupSumMax(model.TableReceiptDetails, "customer_name", "amount", "receipt_date", aggOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate receipts: %w", err)
	}

	now := time.Now().Format(time.RFC3339)
	rows := make([]CustomerReconciliationRow, 0, len(records))
	for _, rec := range records {
		customer, err := model.CustomerFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to decode customer: %w", err)
		}
		sale := sales[customer.CustomerName]
		rcpt := receipts[customer.CustomerName]
		balance := round2(sale.Sum - rcpt.Sum)
		status := "正常"
		if balance < 0 {
			status = "超收"
		}
		rows = append(rows, CustomerReconciliationRow{
			CustomerName:       customer.CustomerName,
			TaxNumber:          customer.TaxNumber,
			Contact:            customer.ContactPerson,
			Phone:              customer.Phone,
			Address:            customer.Address,
			TotalSalesAmount:   round2(sale.Sum),
			TotalReceiptAmount: round2(rcpt.Sum),
			Balance:            balance,
			SalesCount:         sale.Count,
			ReceiptCount:       rcpt.Count,
			LatestSalesDate:    sale.MaxDate,
			LatestReceiptDate:  rcpt.MaxDate,
			Status:             status,
			GeneratedDate:      now,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Balance > rows[j].Balance })
	return rows, nil
}
