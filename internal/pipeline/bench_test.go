package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theirongolddev/budgetlens/internal/model"
	"github.com/theirongolddev/budgetlens/internal/store"
)

// syntheticTable builds n rows spread over 24 months and 40 cost centers.
func syntheticTable(n int) *model.Table {
	t := model.NewTable([]string{"Cost Center", "Category", "Month", "Planned", "Actual", "FX Rate", "Quantity", "Margin"})
	for i := 0; i < n; i++ {
		t.AppendRow([]model.Value{
			model.Text(fmt.Sprintf("CC%02d", i%40)),
			model.Text(fmt.Sprintf("Cat%d", i%7)),
			model.Text(fmt.Sprintf("%04d-%02d", 2023+(i/12)%2, i%12+1)),
			model.Number(float64(1000 + i%500)),
			model.Number(float64(950 + i%650)),
			model.Number(1 + float64(i%9)/100),
			model.Number(float64(i%30 + 1)),
			model.Number(float64(i%40) / 100),
		})
	}
	return t
}

func writeSyntheticCSV(b *testing.B, dir string, files, rows int) []string {
	b.Helper()
	var paths []string
	for f := 0; f < files; f++ {
		var sb strings.Builder
		sb.WriteString("Cost Center,Planned,Actual,FX Rate,Month\n")
		for i := 0; i < rows; i++ {
			fmt.Fprintf(&sb, "CC%d,%d,%d,1.0%d,2024-%02d\n", i%40, 1000+i, 990+i, i%9, i%12+1)
		}
		p := filepath.Join(dir, fmt.Sprintf("upload_%02d.csv", f))
		if err := os.WriteFile(p, []byte(sb.String()), 0o600); err != nil {
			b.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

func BenchmarkRun(b *testing.B) {
	raw := syntheticTable(10000)
	opts := DefaultOptions()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Run(raw, opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAggregate(b *testing.B) {
	t, err := Prepare(syntheticTable(10000), DefaultOptions().Columns)
	if err != nil {
		b.Fatal(err)
	}
	spec := GroupSpec{
		Keys:  []string{model.ColCostCenter, model.ColCategory},
		Sum:   SummaryMeasures,
		Mean:  PercentMeasures,
		Order: OrderByAbs(model.ColVariance),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Aggregate(t, spec)
	}
}

func BenchmarkLoad(b *testing.B) {
	paths := writeSyntheticCSV(b, b.TempDir(), 8, 2000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if r := Load(paths, nil); r.FileErrors > 0 {
			b.Fatalf("%d file errors", r.FileErrors)
		}
	}
}

func BenchmarkLoadWithCache(b *testing.B) {
	dir := b.TempDir()
	paths := writeSyntheticCSV(b, dir, 8, 2000)

	cache, err := store.Open(filepath.Join(dir, "cache.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = cache.Close() }()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cr, err := LoadWithCache(paths, cache, nil)
		if err != nil {
			b.Fatal(err)
		}
		_ = cr
	}
}
