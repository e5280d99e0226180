package parser

import (
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/dict"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

type fakeCatalog struct {
	byNameModel map[[2]string]string
	codes       map[string]bool
}

func (c *fakeCatalog) MaterialCodeByNameModel(name, spec string) (string, bool) {
	code, ok := c.byNameModel[[2]string{name, spec}]
	return code, ok
}

func (c *fakeCatalog) MaterialCodeExists(code string) bool {
	return c.codes[code]
}

// buildWorkbook 构造带固定 Sheet 结构的测试工作簿
func buildWorkbook(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })

	writeRows := func(sheet string, rows [][]any) {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("new sheet %s: %v", sheet, err)
		}
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}

	writeRows("供应商信息表", [][]any{
		{"供应商信息表"},
		{"供应商名称", "供应商编码", "联系人", "备注"},
		{"深圳华强电子", "01", "张工", ""},
		{"", "", "", ""},
		{"东莞精密五金", "02", "李工", "月结30天"},
	})
	writeRows("进货入库明细表", [][]any{
		{"进货入库明细表"},
		{"入库日期", "供应商名称", "物料编码", "物料名称", "规格型号", "数量", "单价", "金额", "开票日期", ""},
		{"2023.9.1", "深圳华强电子", "", "电阻", "0603 10K", "1000", "0.01", "10", "未开票", ""},
		{"2023-09-02", "东莞精密五金", "P-13-05-0000-001", "外壳", "ABS", "50", "2.5", "125", "2023-09-10", ""},
	})
	writeRows("销售出库明细表", [][]any{
		{"销售出库明细表"},
		{"出库日期", "客户名称", "产品名称", "物料名称", "规格型号", "数量", "出库金额"},
		{"2023/9/5", "北京智能科技", "控制器V1", "控制器", "V1", "10", "3000"},
	})
	writeRows("库存统计表", [][]any{
		{"库存统计表"},
		{"物料编码", "物料名称", "库存统计", "", "备注"},
		{"", "", "库存数量", "库存金额", ""},
		{"P-13-05-0000-001", "外壳", "120", "300", ""},
		{"", "", "", "", ""},
	})
	return f
}

func newTestParser(t *testing.T, catalog Catalog) *Parser {
	t.Helper()
	d, err := dict.Load()
	if err != nil {
		t.Fatalf("load dictionary: %v", err)
	}
	return New(buildWorkbook(t), d, catalog)
}

func TestParseTable_Suppliers(t *testing.T) {
	t.Parallel()

	p := newTestParser(t, nil)
	records, err := p.ParseTable(model.TableSuppliers)
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (空行应被过滤)", len(records))
	}
	if records[0].GetString("supplier_name") != "深圳华强电子" {
		t.Errorf("supplier_name = %q", records[0].GetString("supplier_name"))
	}
	// 编码字段是字符串型，前导零必须保留
	if records[0].GetString("supplier_code") != "01" {
		t.Errorf("supplier_code = %v, want \"01\"", records[0]["supplier_code"])
	}
}

func TestParseTable_PurchaseInbound(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{
		byNameModel: map[[2]string]string{{"电阻", "0603 10K"}: "P-21-03-0000-007"},
		codes:       map[string]bool{"P-13-05-0000-001": true, "P-21-03-0000-007": true},
	}
	p := newTestParser(t, catalog)
	records, err := p.ParseTable(model.TablePurchaseInbound)
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first.GetString("material_code") != "P-21-03-0000-007" {
		t.Errorf("编码未回填: %v", first["material_code"])
	}
	if _, ok := first["inbound_date"].(time.Time); !ok {
		t.Errorf("inbound_date 未归一化: %v", first["inbound_date"])
	}
	if _, hasInvoice := first["invoice_date"]; hasInvoice && first["invoice_date"] != nil {
		t.Errorf("哨兵开票日期应置空: %v", first["invoice_date"])
	}
	if qty, ok := first["quantity"].(float64); !ok || qty != 1000 {
		t.Errorf("quantity = %v, want 1000.0", first["quantity"])
	}

	second := records[1]
	if second.GetString("material_code") != "P-13-05-0000-001" {
		t.Errorf("自带编码被改写: %v", second["material_code"])
	}
}

func TestParseTable_SalesOutbound(t *testing.T) {
	t.Parallel()

	p := newTestParser(t, nil)
	records, err := p.ParseTable(model.TableSalesOutbound)
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if _, ok := records[0]["outbound_date"].(time.Time); !ok {
		t.Errorf("outbound_date 未归一化: %v", records[0]["outbound_date"])
	}
	if amt, ok := records[0]["outbound_amount"].(float64); !ok || amt != 3000 {
		t.Errorf("outbound_amount = %v", records[0]["outbound_amount"])
	}
}

func TestParseTable_InventoryStats_TwoRowHeader(t *testing.T) {
	t.Parallel()

	p := newTestParser(t, nil)
	records, err := p.ParseTable(model.TableInventoryStats)
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (全空行应被过滤)", len(records))
	}

	rec := records[0]
	// 子表头覆盖主表头
	if qty, ok := rec["stock_quantity"].(float64); !ok || qty != 120 {
		t.Errorf("stock_quantity = %v, want 120", rec["stock_quantity"])
	}
	if amt, ok := rec["stock_amount"].(float64); !ok || amt != 300 {
		t.Errorf("stock_amount = %v, want 300", rec["stock_amount"])
	}
	// 空单元格保留为 nil
	if v, present := rec["remarks"]; !present || v != nil {
		t.Errorf("remarks = %v (present=%v), want nil kept", v, present)
	}
}

func TestParseTable_UnknownTable(t *testing.T) {
	t.Parallel()

	p := newTestParser(t, nil)
	if _, err := p.ParseTable("no_such_table"); err == nil {
		t.Fatal("expected error for unknown table")
	}
}

func TestNormalizeHeader(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		" 物料 编码 ":  "物料编码",
		"供应商名称\n":  "供应商名称",
		"单价（元）":    "单价(元)",
		"Ｕｎnamed": "Unnamed",
	}
	for in, want := range cases {
		if got := NormalizeHeader(in); got != want {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", in, got, want)
		}
	}
}
