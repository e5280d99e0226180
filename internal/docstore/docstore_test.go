package docstore

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/dict"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ims.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestInsertAndFind(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	records := []model.Record{
		{"supplier_name": "深圳华强电子", "supplier_code": "01"},
		{"supplier_name": "东莞精密五金", "supplier_code": "02"},
	}
	if err := s.InsertMany("suppliers", records); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}
	// 插入后自动分配 _id
	for _, rec := range records {
		if rec.GetString("_id") == "" {
			t.Fatal("missing _id after insert")
		}
	}

	got, err := s.Find("suppliers", Query{Filter: map[string]any{"supplier_code": "02"}})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 1 || got[0].GetString("supplier_name") != "东莞精密五金" {
		t.Fatalf("unexpected result: %v", got)
	}

	n, err := s.Count("suppliers", Query{})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Fatalf("Count = %d, want 2", n)
	}
}

func TestReplaceAll_Idempotent(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	records := []model.Record{
		{"material_code": "P-13-05-0000-001", "material_name": "外壳"},
		{"material_code": "P-13-05-0000-002", "material_name": "面板"},
	}
	for i := 0; i < 3; i++ {
		fresh := make([]model.Record, len(records))
		for j, r := range records {
			fresh[j] = r.Clone()
			delete(fresh[j], "_id")
		}
		if err := s.ReplaceAll("materials", fresh); err != nil {
			t.Fatalf("ReplaceAll #%d: %v", i, err)
		}
	}
	n, err := s.Count("materials", Query{})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Fatalf("Count = %d after repeated imports, want 2", n)
	}
}

func TestFindByID_UpdateDelete(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	rec := model.Record{"customer_name": "北京智能科技"}
	if err := s.InsertMany("customers", []model.Record{rec}); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}
	id := rec.GetString("_id")

	if err := s.UpdateByID("customers", id, map[string]any{"customer_code": "C001"}); err != nil {
		t.Fatalf("UpdateByID: %v", err)
	}
	got, err := s.FindByID("customers", id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.GetString("customer_code") != "C001" || got.GetString("customer_name") != "北京智能科技" {
		t.Fatalf("update lost fields: %v", got)
	}

	if err := s.UpdateByID("customers", "no-such-id", map[string]any{"x": 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateByID missing = %v, want ErrNotFound", err)
	}
	if err := s.DeleteByID("customers", id); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if err := s.DeleteByID("customers", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete = %v, want ErrNotFound", err)
	}
}

func TestDeleteByIDs(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	recs := []model.Record{{"n": 1.0}, {"n": 2.0}, {"n": 3.0}}
	if err := s.InsertMany("items", recs); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}
	deleted, err := s.DeleteByIDs("items", []string{
		recs[0].GetString("_id"), recs[2].GetString("_id"), "missing",
	})
	if err != nil {
		t.Fatalf("DeleteByIDs: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}
}

func TestFind_RegexSearch(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	records := []model.Record{
		{"material_name": "控制器", "material_model": "CTRL-100"},
		{"material_name": "电阻", "material_model": "0603 10K"},
	}
	if err := s.InsertMany("materials", records); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	// 不区分大小写，任一字段命中
	got, err := s.Find("materials", Query{
		Search:       "ctrl",
		SearchFields: []string{"material_name", "material_model"},
	})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 1 || got[0].GetString("material_name") != "控制器" {
		t.Fatalf("regex search result: %v", got)
	}
}

func TestFind_SortAndPaginate(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	records := []model.Record{
		{"supplier_name": "丙", "rank": 3.0},
		{"supplier_name": "甲", "rank": 1.0},
		{"supplier_name": "乙", "rank": 2.0},
	}
	if err := s.InsertMany("suppliers", records); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	got, err := s.Find("suppliers", Query{SortBy: "rank", Skip: 1, Limit: 1})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 1 || got[0].GetString("supplier_name") != "乙" {
		t.Fatalf("pagination result: %v", got)
	}

	got, err = s.Find("suppliers", Query{SortBy: "rank", SortDesc: true, Limit: 1})
	if err != nil {
		t.Fatalf("Find desc: %v", err)
	}
	if len(got) != 1 || got[0].GetString("supplier_name") != "丙" {
		t.Fatalf("desc sort result: %v", got)
	}
}

func TestEnsureIndexes_Rebuild(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	if err := s.InsertMany("materials", []model.Record{
		{"material_code": "P-13-05-0000-001", "material_name": "外壳"},
	}); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	specs := []dict.IndexSpec{
		{Fields: []string{"material_code"}, Unique: true},
		{Fields: []string{"material_name"}},
	}
	for i := 0; i < 2; i++ {
		if err := s.EnsureIndexes("materials", specs); err != nil {
			t.Fatalf("EnsureIndexes #%d: %v", i, err)
		}
	}

	// 唯一索引生效：重复编码插入应失败
	err := s.InsertMany("materials", []model.Record{
		{"material_code": "P-13-05-0000-001", "material_name": "重复"},
	})
	if err == nil {
		t.Fatal("duplicate material_code accepted despite unique index")
	}
}

func TestGroupSumMax(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	records := []model.Record{
		{"customer_name": "北京智能科技", "outbound_amount": 100.0, "outbound_date": "2023-09-01T00:00:00Z"},
		{"customer_name": "北京智能科技", "outbound_amount": 50.0, "outbound_date": "2023-10-01T00:00:00Z"},
		{"customer_name": "上海自动化", "outbound_amount": 80.0, "outbound_date": "2023-08-15T00:00:00Z"},
	}
	if err := s.InsertMany("sales_outbound", records); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	aggs, err := s.GroupSumMax("sales_outbound", "customer_name", "outbound_amount", "outbound_date", AggregateOptions{})
	if err != nil {
		t.Fatalf("GroupSumMax: %v", err)
	}
	bj := aggs["北京智能科技"]
	if bj.Sum != 150 || bj.Count != 2 || bj.MaxDate != "2023-10-01T00:00:00Z" {
		t.Fatalf("unexpected agg: %+v", bj)
	}

	// 按键过滤
	only, err := s.GroupSumMax("sales_outbound", "customer_name", "outbound_amount", "outbound_date",
		AggregateOptions{Key: "上海自动化"})
	if err != nil {
		t.Fatalf("GroupSumMax filtered: %v", err)
	}
	if len(only) != 1 || only["上海自动化"].Sum != 80 {
		t.Fatalf("filtered agg: %v", only)
	}

	// 日期范围
	ranged, err := s.GroupSumMax("sales_outbound", "customer_name", "outbound_amount", "outbound_date",
		AggregateOptions{DateFrom: "2023-09-15T00:00:00Z"})
	if err != nil {
		t.Fatalf("GroupSumMax ranged: %v", err)
	}
	if ranged["北京智能科技"].Sum != 50 {
		t.Fatalf("ranged agg: %v", ranged)
	}
}

func TestMaxSequenceForPrefix(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	records := []model.Record{
		{"material_code": "P-13-05-0000-001"},
		{"material_code": "P-13-05-0000-007"},
		{"material_code": "P-13-06-0000-099"},
		{"material_name": "无编码"},
	}
	if err := s.InsertMany("materials", records); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	seq, err := s.MaxSequenceForPrefix("materials", "material_code", "P-13-05-0000-")
	if err != nil {
		t.Fatalf("MaxSequenceForPrefix: %v", err)
	}
	if seq != 7 {
		t.Fatalf("seq = %d, want 7", seq)
	}

	seq, err = s.MaxSequenceForPrefix("materials", "material_code", "R-99-01-0000-")
	if err != nil {
		t.Fatalf("MaxSequenceForPrefix empty: %v", err)
	}
	if seq != 0 {
		t.Fatalf("seq = %d for empty prefix, want 0", seq)
	}
}

func TestCollections(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	for _, name := range []string{"suppliers", "customers"} {
		if err := s.EnsureCollection(name); err != nil {
			t.Fatalf("EnsureCollection %s: %v", name, err)
		}
	}
	names, err := s.Collections()
	if err != nil {
		t.Fatalf("Collections: %v", err)
	}
	if len(names) != 2 || names[0] != "customers" || names[1] != "suppliers" {
		t.Fatalf("Collections = %v", names)
	}
}

func TestInvalidIdentifiers(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	if err := s.EnsureCollection("bad;name"); err == nil {
		t.Fatal("invalid collection name accepted")
	}
	if _, err := s.Find("suppliers", Query{Filter: map[string]any{"a') --": 1}}); err == nil {
		t.Fatal("invalid field name accepted")
	}
}
