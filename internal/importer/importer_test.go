package importer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/dict"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/docstore"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

func newTestImporter(t *testing.T) (*Importer, *docstore.Store) {
	t.Helper()
	s, err := docstore.Open(filepath.Join(t.TempDir(), "ims.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	d, err := dict.Load()
	if err != nil {
		t.Fatalf("load dictionary: %v", err)
	}
	return New(s, d), s
}

func TestImportTable_ReplaceAll(t *testing.T) {
	t.Parallel()

	im, s := newTestImporter(t)
	records := []model.Record{
		{"supplier_name": "深圳华强电子", "supplier_code": "01"},
		{"supplier_name": "东莞精密五金", "supplier_code": "02"},
	}

	// 重复导入同一批数据不应产生重复文档
	for i := 0; i < 2; i++ {
		fresh := make([]model.Record, len(records))
		for j, r := range records {
			fresh[j] = r.Clone()
		}
		report := im.ImportTable(model.TableSuppliers, fresh)
		if !report.Success {
			t.Fatalf("import #%d failed: %s", i, report.Error)
		}
		if report.Indexes == 0 {
			t.Fatalf("no indexes rebuilt")
		}
	}

	n, err := s.Count(model.TableSuppliers, docstore.Query{})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Fatalf("Count = %d after repeated import, want 2", n)
	}
}

func TestImportTable_StandardCodes(t *testing.T) {
	t.Parallel()

	im, s := newTestImporter(t)
	im.SetStandardCodeMapping(map[string]string{"OLD-001": "P-13-05-0000-001"})

	records := []model.Record{
		{"material_code": "OLD-001", "material_name": "外壳"},
		{"material_code": "OLD-002", "material_name": "面板"},
		{"material_name": "无编码"},
	}
	report := im.ImportTable(model.TableMaterials, records)
	if !report.Success {
		t.Fatalf("import failed: %s", report.Error)
	}
	if report.Mapped != 1 || report.Unmapped != 1 {
		t.Fatalf("mapped/unmapped = %d/%d, want 1/1", report.Mapped, report.Unmapped)
	}

	got, err := s.FindOne(model.TableMaterials, map[string]any{"material_code": "P-13-05-0000-001"})
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if got.GetString("original_material_code") != "OLD-001" {
		t.Errorf("original code not kept: %v", got)
	}
	if applied, _ := got["standard_code_applied"].(bool); !applied {
		t.Errorf("standard_code_applied = %v", got["standard_code_applied"])
	}

	miss, err := s.FindOne(model.TableMaterials, map[string]any{"material_code": "OLD-002"})
	if err != nil {
		t.Fatalf("FindOne unmapped: %v", err)
	}
	if miss.GetString("unmapped_code") != "OLD-002" {
		t.Errorf("unmapped_code = %v", miss["unmapped_code"])
	}
	if applied, ok := miss["standard_code_applied"].(bool); !ok || applied {
		t.Errorf("unmapped record flagged applied: %v", miss["standard_code_applied"])
	}
}

func TestImportTable_CodeFieldScope(t *testing.T) {
	t.Parallel()

	im, s := newTestImporter(t)
	im.SetStandardCodeMapping(map[string]string{"01": "SHOULD-NOT-APPLY"})

	// 供应商表没有物料编码字段，映射不应作用于它
	report := im.ImportTable(model.TableSuppliers, []model.Record{
		{"supplier_name": "深圳华强电子", "supplier_code": "01"},
	})
	if !report.Success || report.Mapped != 0 {
		t.Fatalf("report = %+v", report)
	}
	got, err := s.FindOne(model.TableSuppliers, map[string]any{"supplier_code": "01"})
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if _, has := got["standard_code_applied"]; has {
		t.Errorf("supplier record touched by code mapping: %v", got)
	}
}

func TestLoadStandardCodeMapping(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "standard_material_table.json")
	content := map[string]any{
		"materials": []map[string]any{
			{"old_code": "OLD-001", "new_code": "P-13-05-0000-001"},
			{"old_code": "", "new_code": "ignored"},
		},
	}
	raw, _ := json.Marshal(content)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatalf("write mapping: %v", err)
	}

	mapping, err := LoadStandardCodeMapping(path)
	if err != nil {
		t.Fatalf("LoadStandardCodeMapping: %v", err)
	}
	if len(mapping) != 1 || mapping["OLD-001"] != "P-13-05-0000-001" {
		t.Fatalf("mapping = %v", mapping)
	}

	// 文件缺失不是错误
	missing, err := LoadStandardCodeMapping(filepath.Join(dir, "absent.json"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("missing mapping = %v", missing)
	}
}

func TestImportDir(t *testing.T) {
	t.Parallel()

	im, s := newTestImporter(t)
	dir := t.TempDir()

	write := func(name string, doc any) {
		raw, _ := json.Marshal(doc)
		if err := os.WriteFile(filepath.Join(dir, name), raw, 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("suppliers.json", map[string]any{
		"metadata": map[string]any{"table_name": "suppliers"},
		"data":     []map[string]any{{"supplier_name": "深圳华强电子"}},
	})
	write("materials.json", map[string]any{
		"data": []map[string]any{{"material_code": "P-13-05-0000-001", "material_name": "外壳"}},
	})
	write("customers.json", map[string]any{"data": "not-a-list"})

	reports, err := im.ImportDir(dir)
	if err != nil {
		t.Fatalf("ImportDir: %v", err)
	}

	byTable := make(map[string]TableReport)
	for _, r := range reports {
		byTable[r.Table] = r
	}
	if !byTable["suppliers"].Success || !byTable["materials"].Success {
		t.Fatalf("reports = %+v", reports)
	}
	// 坏文件只影响本表
	if byTable["customers"].Success || byTable["customers"].Error == "" {
		t.Fatalf("bad file not reported: %+v", byTable["customers"])
	}

	n, err := s.Count(model.TableSuppliers, docstore.Query{})
	if err != nil || n != 1 {
		t.Fatalf("suppliers count = %d (%v)", n, err)
	}
}

func TestImportDir_Empty(t *testing.T) {
	t.Parallel()

	im, _ := newTestImporter(t)
	if _, err := im.ImportDir(t.TempDir()); err == nil {
		t.Fatal("expected error for empty directory")
	}
}
