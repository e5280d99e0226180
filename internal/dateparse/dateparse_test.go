package dateparse

import (
	"testing"
	"time"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

func mustTime(t *testing.T, layout, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(layout, value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return parsed
}

func TestParse_Formats(t *testing.T) {
	t.Parallel()

	p := New()
	want := mustTime(t, "2006-01-02", "2023-09-01")

	cases := []string{
		"2023-09-01",
		"2023-9-1",
		"2023.9.1",
		"2023.09.01",
		"2023/9/1",
		"9/1/2023",
		"2023年9月1日",
		"20230901",
	}
	for _, in := range cases {
		got, ok := p.Parse(in).(time.Time)
		if !ok {
			t.Fatalf("Parse(%q) = %v, want time.Time", in, p.Parse(in))
		}
		if !got.Equal(want) {
			t.Errorf("Parse(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParse_DateTime(t *testing.T) {
	t.Parallel()

	p := New()
	got, ok := p.Parse("2023-09-01 08:30:00").(time.Time)
	if !ok {
		t.Fatal("expected time.Time")
	}
	want := mustTime(t, "2006-01-02 15:04:05", "2023-09-01 08:30:00")
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParse_Sentinels(t *testing.T) {
	t.Parallel()

	p := New()
	for _, in := range []string{"未开票", "待定", "无", "", "  ", "NULL", "N/A", "暂无"} {
		if got := p.Parse(in); got != nil {
			t.Errorf("Parse(%q) = %v, want nil", in, got)
		}
	}
}

func TestParse_InvalidDateKeepsOriginal(t *testing.T) {
	t.Parallel()

	p := New()
	// 结构上匹配斜杠规则，但 2 月没有 31 号，应原样保留
	for _, in := range []string{"31/02/2023", "2023/02/31", "2023-13-01", "联系后付款"} {
		got := p.Parse(in)
		if got != in {
			t.Errorf("Parse(%q) = %v, want original value", in, got)
		}
	}
}

func TestParse_PassThroughTypes(t *testing.T) {
	t.Parallel()

	p := New()
	now := time.Now()
	if got := p.Parse(now); got != now {
		t.Errorf("time.Time should pass through unchanged, got %v", got)
	}
	if got := p.Parse(nil); got != nil {
		t.Errorf("nil should stay nil, got %v", got)
	}
	if got := p.Parse(42); got != 42 {
		t.Errorf("non-string value should pass through, got %v", got)
	}
}

func TestParse_Idempotent(t *testing.T) {
	t.Parallel()

	p := New()
	once := p.Parse("2023.9.1")
	twice := p.Parse(once)
	if once != twice {
		t.Errorf("normalizing twice changed the value: %v vs %v", once, twice)
	}
}

func TestAddRule_TakesPriority(t *testing.T) {
	t.Parallel()

	p := New()
	if err := p.AddRule(`^\d{1,2}-\d{1,2}-\d{4}$`, "2-1-2006"); err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	got, ok := p.Parse("01-09-2023").(time.Time)
	if !ok {
		t.Fatal("custom rule did not match")
	}
	want := mustTime(t, "2006-01-02", "2023-09-01")
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestAddSentinel(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddSentinel("账期未到")
	if got := p.Parse("账期未到"); got != nil {
		t.Errorf("custom sentinel not cleared, got %v", got)
	}
}

func TestNormalizeFields(t *testing.T) {
	t.Parallel()

	p := New()
	records := []model.Record{
		{"inbound_date": "2023.9.1", "invoice_date": "未开票", "remark": "text"},
		{"inbound_date": "not-a-date"},
		{"invoice_date": nil},
	}
	stats := p.NormalizeFields(records, []string{"inbound_date", "invoice_date"})

	if stats.Parsed != 1 || stats.Cleared != 1 || stats.Unchanged != 1 {
		t.Errorf("stats = %+v, want Parsed=1 Cleared=1 Unchanged=1", stats)
	}
	if _, ok := records[0]["inbound_date"].(time.Time); !ok {
		t.Errorf("inbound_date not normalized: %v", records[0]["inbound_date"])
	}
	if records[0]["invoice_date"] != nil {
		t.Errorf("sentinel invoice_date not cleared: %v", records[0]["invoice_date"])
	}
	if records[1]["inbound_date"] != "not-a-date" {
		t.Errorf("unparsed value changed: %v", records[1]["inbound_date"])
	}
	if records[0]["remark"] != "text" {
		t.Errorf("non-date field touched: %v", records[0]["remark"])
	}
}
