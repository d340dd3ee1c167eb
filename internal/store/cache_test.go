package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/budgetlens/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_RoundTrip(t *testing.T) {
	c := openTestCache(t)

	when := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tbl := model.NewTable([]string{"Cost Center", "Planned", "Month", "Note"})
	tbl.AppendRow([]model.Value{model.Text("CC1"), model.Number(10000), model.TimeValue(when), model.Text("x")})
	tbl.AppendRow([]model.Value{model.Text("CC2"), model.Missing(), {}, {}})

	fi := FileInfo{MtimeNs: 42, SizeBytes: 1024}
	if err := c.SaveTable("/data/budget.xlsx", "xlsx", tbl, fi); err != nil {
		t.Fatalf("SaveTable: %v", err)
	}

	got, ok, err := c.LoadTable("/data/budget.xlsx")
	if err != nil || !ok {
		t.Fatalf("LoadTable = %v, %v", ok, err)
	}
	if got.Len() != 2 {
		t.Fatalf("Len = %d, want 2", got.Len())
	}
	if v := got.Get(0, "Planned"); v.Kind != model.KindNumber || v.Num != 10000 {
		t.Errorf("Planned[0] = %+v, want 10000", v)
	}
	if v := got.Get(0, "Month"); v.Kind != model.KindTime || !v.Time.Equal(when) {
		t.Errorf("Month[0] = %+v, want %v", v, when)
	}
	if v := got.Get(1, "Planned"); v.Kind != model.KindMissing {
		t.Errorf("Planned[1] kind = %v, want missing", v.Kind)
	}
	if !got.Get(1, "Note").IsBlank() {
		t.Errorf("Note[1] should be blank")
	}

	tracked, err := c.GetTrackedFiles()
	if err != nil {
		t.Fatal(err)
	}
	if tracked["/data/budget.xlsx"] != fi {
		t.Errorf("tracked = %+v, want %+v", tracked["/data/budget.xlsx"], fi)
	}
}

func TestCache_Replace(t *testing.T) {
	c := openTestCache(t)

	first := model.NewTable([]string{"A", "B"})
	first.AppendRow([]model.Value{model.Number(1), model.Number(2)})
	first.AppendRow([]model.Value{model.Number(3), model.Number(4)})
	if err := c.SaveTable("f.csv", "csv", first, FileInfo{1, 1}); err != nil {
		t.Fatal(err)
	}

	second := model.NewTable([]string{"A"})
	second.AppendRow([]model.Value{model.Number(9)})
	if err := c.SaveTable("f.csv", "csv", second, FileInfo{2, 2}); err != nil {
		t.Fatal(err)
	}

	got, _, err := c.LoadTable("f.csv")
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 1 || len(got.Columns) != 1 {
		t.Fatalf("shape = %dx%d, want 1x1", got.Len(), len(got.Columns))
	}
	if v, _ := got.Float(0, "A"); v != 9 {
		t.Errorf("A[0] = %v, want 9", v)
	}

	n, err := c.TableCount()
	if err != nil || n != 1 {
		t.Errorf("TableCount = %d, %v; want 1", n, err)
	}
}

func TestCache_MissAndDelete(t *testing.T) {
	c := openTestCache(t)

	if _, ok, err := c.LoadTable("nope"); ok || err != nil {
		t.Errorf("LoadTable(nope) = %v, %v; want miss", ok, err)
	}

	tbl := model.NewTable([]string{"A"})
	tbl.AppendRow([]model.Value{model.Text("x")})
	if err := c.SaveTable("gone.csv", "csv", tbl, FileInfo{}); err != nil {
		t.Fatal(err)
	}
	entries, err := c.ListEntries()
	if err != nil || len(entries) != 1 || entries[0].Rows != 1 {
		t.Fatalf("ListEntries = %+v, %v", entries, err)
	}
	if err := c.DeleteTable("gone.csv"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.LoadTable("gone.csv"); ok {
		t.Error("table still cached after delete")
	}
}
