package etl

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/dict"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

// writeTestWorkbook 写一个只含部分业务表的工作簿
// 缺失的表应被记为失败而不中断整个流程。
func writeTestWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	writeRows := func(sheet string, rows [][]any) {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("new sheet: %v", err)
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
		{"供应商名称", "供应商编码"},
		{"深圳华强电子", "01"},
	})
	writeRows("进货参数表", [][]any{
		{"进货参数表"},
		{"物料编码", "物料名称", "规格型号", "单位", "供应商名称"},
		{"P-13-05-0000-001", "外壳", "ABS", "个", "深圳华强电子"},
	})
	writeRows("销售出库明细表", [][]any{
		{"销售出库明细表"},
		{"出库日期", "客户名称", "物料编码", "物料名称", "规格型号", "出库金额"},
		{"2023-09-05", "北京智能科技", "P-13-05-0000-001", "外壳", "ABS", "3000"},
		{"2023-09-06", "北京智能科技", "R-11-02-0000-001", "固件授权", "V2", "1500"},
	})

	path := filepath.Join(t.TempDir(), "imsviewer.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func newOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	d, err := dict.Load()
	if err != nil {
		t.Fatalf("load dictionary: %v", err)
	}
	return New(d, nil)
}

func TestParseWorkbook_PartialSuccess(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t)
	result, err := o.ParseWorkbook(writeTestWorkbook(t))
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}

	if len(result.Tables) != len(model.TableOrder) {
		t.Fatalf("got %d tables, want %d", len(result.Tables), len(model.TableOrder))
	}
	if len(result.Tables[model.TableSuppliers]) != 1 {
		t.Errorf("suppliers = %d records", len(result.Tables[model.TableSuppliers]))
	}
	// 工作簿中不存在的表记为失败且结果为空
	if len(result.Tables[model.TableCustomers]) != 0 {
		t.Errorf("customers should be empty")
	}
	failed := make(map[string]bool)
	for _, table := range result.FailedTables {
		failed[table] = true
	}
	if !failed[model.TableCustomers] || !failed[model.TableInventoryStats] {
		t.Errorf("missing sheets not marked failed: %v", result.FailedTables)
	}
	if failed[model.TableSuppliers] {
		t.Errorf("suppliers wrongly marked failed")
	}
}

func TestParseWorkbook_MissingFile(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t)
	if _, err := o.ParseWorkbook(filepath.Join(t.TempDir(), "missing.xlsx")); err == nil {
		t.Fatal("expected error for missing workbook")
	}
}

func TestExtractMaterials_Dedup(t *testing.T) {
	t.Parallel()

	tables := map[string][]model.Record{
		model.TablePurchaseParams: {
			{"material_code": "P-13-05-0000-001", "material_name": "外壳", "supplier_name": "深圳华强电子", "unit": "个"},
		},
		model.TablePurchaseInbound: {
			{"material_code": "P-13-05-0000-001", "material_name": "外壳改名", "supplier_name": "别家"},
			{"material_code": "P-21-03-0000-007", "material_name": "电阻", "supplier_name": "东莞精密五金"},
		},
		model.TableSalesOutbound: {
			{"material_code": "R-11-02-0000-001", "material_name": "固件授权", "supplier_name": "不应出现"},
		},
	}

	materials := ExtractMaterials(tables)
	if len(materials) != 3 {
		t.Fatalf("got %d materials, want 3", len(materials))
	}

	byCode := make(map[string]model.Record)
	for _, m := range materials {
		byCode[m.GetString("material_code")] = m
	}
	// 首见优先：进货参数表的描述字段胜出
	if byCode["P-13-05-0000-001"].GetString("material_name") != "外壳" {
		t.Errorf("first-seen fields not kept: %v", byCode["P-13-05-0000-001"])
	}
	if byCode["P-13-05-0000-001"].GetString("source_table") != model.TablePurchaseParams {
		t.Errorf("source_table = %v", byCode["P-13-05-0000-001"]["source_table"])
	}
	// 销售出库来源的物料不带供应商
	if byCode["R-11-02-0000-001"].GetString("supplier_name") != "" {
		t.Errorf("sales-sourced material carries supplier: %v", byCode["R-11-02-0000-001"])
	}
	// 默认单位
	if byCode["P-21-03-0000-007"].GetString("unit") != "台" {
		t.Errorf("default unit = %v", byCode["P-21-03-0000-007"]["unit"])
	}
}

func TestSaveAll(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t)
	result, err := o.ParseWorkbook(writeTestWorkbook(t))
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}

	outDir := t.TempDir()
	outputFile := filepath.Join(outDir, "imsviewer_data.json")
	saved, err := o.SaveAll(result, outputFile)
	if err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	// 汇总文件 + 三个非空表 + materials.json
	wantFiles := map[string]bool{
		outputFile: true,
		filepath.Join(outDir, "suppliers.json"):       true,
		filepath.Join(outDir, "purchase_params.json"): true,
		filepath.Join(outDir, "sales_outbound.json"):  true,
		filepath.Join(outDir, "materials.json"):       true,
	}
	if len(saved) != len(wantFiles) {
		t.Fatalf("saved %d files %v, want %d", len(saved), saved, len(wantFiles))
	}
	for _, path := range saved {
		if !wantFiles[path] {
			t.Errorf("unexpected file: %s", path)
		}
	}

	raw, err := os.ReadFile(filepath.Join(outDir, "suppliers.json"))
	if err != nil {
		t.Fatalf("read suppliers.json: %v", err)
	}
	var doc struct {
		Metadata struct {
			TableName         string `json:"table_name"`
			TableChineseName  string `json:"table_chinese_name"`
			TotalRecords      int    `json:"total_records"`
			DictionaryVersion string `json:"dictionary_version"`
		} `json:"metadata"`
		Data []model.Record `json:"data"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Metadata.TableName != "suppliers" || doc.Metadata.TableChineseName != "供应商信息表" {
		t.Errorf("metadata = %+v", doc.Metadata)
	}
	if doc.Metadata.TotalRecords != 1 || len(doc.Data) != 1 {
		t.Errorf("records = %d/%d", doc.Metadata.TotalRecords, len(doc.Data))
	}
	if doc.Metadata.DictionaryVersion == "" {
		t.Error("missing dictionary version")
	}
}
