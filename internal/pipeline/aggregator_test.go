package pipeline

import (
	"slices"
	"testing"

	"github.com/theirongolddev/budgetlens/internal/model"
)

func calculated(t *testing.T, cols []string, rows ...[]any) *model.Table {
	t.Helper()
	tb := tbl(cols, rows...)
	FillDefaults(tb)
	Calculate(tb)
	return tb
}

func TestAggregate_SumInvariant(t *testing.T) {
	tb := calculated(t, []string{"Version", "Cost Center", "Planned", "Actual", "FX Rate"},
		[]any{"V1", "A", 100.10, 120.20, 1.1},
		[]any{"V1", "B", 200.30, 150.40, 0.9},
		[]any{"V2", "A", 300.50, 310.60, 1.0},
		[]any{"V1", "A", 50.70, 40.80, 1.2},
		[]any{nil, "C", 10, 11, 1.0},
	)
	agg := Summarize(tb)

	for _, col := range SummaryMeasures {
		if got, want := Total(agg, col), Total(tb, col); !approx(got, want) {
			t.Errorf("sum(%s) aggregated = %v, raw = %v", col, got, want)
		}
	}
	if agg.Len() != 4 {
		t.Errorf("groups = %d, want 4 (blank version is its own group)", agg.Len())
	}
}

func TestAggregate_FirstSeenOrder(t *testing.T) {
	tb := calculated(t, []string{"Cost Center", "Planned", "Actual"},
		[]any{"B", 1, 1},
		[]any{"A", 1, 1},
		[]any{"B", 1, 1},
		[]any{"C", 1, 1},
	)
	agg := Aggregate(tb, GroupSpec{Keys: []string{model.ColCostCenter}, Sum: []string{model.ColPlanned}})

	var got []string
	for i := 0; i < agg.Len(); i++ {
		got = append(got, agg.Label(i, model.ColCostCenter))
	}
	if !slices.Equal(got, []string{"B", "A", "C"}) {
		t.Errorf("order = %v, want [B A C]", got)
	}
	if v := mustFloat(t, agg, 0, model.ColPlanned); v != 2 {
		t.Errorf("B Planned = %v, want 2", v)
	}
}

func TestAggregate_OrderByAbs(t *testing.T) {
	tb := calculated(t, []string{"Category", "Planned", "Actual"},
		[]any{"Small", 100, 110},  // +10
		[]any{"Big", 100, 400},    // +300
		[]any{"Neg", 500, 100},    // -400
		[]any{"Tie", 100, 90},     // -10
		[]any{"Small", 100, 100},  // 0
	)
	agg := Aggregate(tb, GroupSpec{
		Keys:  []string{model.ColCategory},
		Sum:   []string{model.ColVariance},
		Order: OrderByAbs(model.ColVariance),
	})

	var got []string
	for i := 0; i < agg.Len(); i++ {
		got = append(got, agg.Label(i, model.ColCategory))
	}
	// Small and Tie share |10|; Small was seen first.
	if !slices.Equal(got, []string{"Neg", "Big", "Small", "Tie"}) {
		t.Errorf("order = %v", got)
	}
}

func TestAggregate_MeansAndAbsentColumns(t *testing.T) {
	tb := calculated(t, []string{"Region", "Planned", "Margin"},
		[]any{"EU", 100, 0.2},
		[]any{"EU", 100, 0.4},
		[]any{"US", 100, nil},
	)
	agg := Aggregate(tb, GroupSpec{
		Keys: []string{model.ColRegion, "Nonexistent"},
		Sum:  []string{model.ColPlanned, "Also Missing"},
		Mean: []string{model.ColMargin},
	})

	if !slices.Equal(agg.Columns, []string{"Region", "Planned", "Margin"}) {
		t.Errorf("Columns = %v", agg.Columns)
	}
	if v := mustFloat(t, agg, 0, model.ColMargin); !approx(v, 0.3) {
		t.Errorf("EU Margin = %v, want 0.3", v)
	}
	if v := agg.Get(1, model.ColMargin); v.Kind != model.KindMissing {
		t.Errorf("US Margin = %+v, want missing", v)
	}
}

func TestAggregate_Empty(t *testing.T) {
	tb := model.NewTable([]string{"Cost Center", "Planned"})
	agg := Aggregate(tb, GroupSpec{Keys: []string{model.ColCostCenter}, Sum: []string{model.ColPlanned}})
	if agg.Len() != 0 {
		t.Errorf("Len = %d, want 0", agg.Len())
	}
	if Total(tb, model.ColPlanned) != 0 {
		t.Error("empty sum should be 0")
	}
}

func TestAggregate_NoKeysSingleGroup(t *testing.T) {
	tb := calculated(t, []string{"Cost Center", "Planned", "Actual"},
		[]any{"A", 10, 1},
		[]any{"B", 20, 2},
	)
	agg := Aggregate(tb, GroupSpec{Keys: []string{"Scenario"}, Sum: []string{model.ColPlanned}})
	if agg.Len() != 1 {
		t.Fatalf("Len = %d, want 1", agg.Len())
	}
	if v := mustFloat(t, agg, 0, model.ColPlanned); v != 30 {
		t.Errorf("Planned = %v, want 30", v)
	}
}

func TestTopGroups(t *testing.T) {
	tb := calculated(t, []string{"Department", "Planned", "Actual"},
		[]any{"Ops", 100, 150},
		[]any{"IT", 100, 90},
		[]any{"HR", 100, 400},
		[]any{"Ops", 100, 130},
	)
	got := TopGroups(tb, model.ColDepartment, 2)
	if !slices.Equal(got, []string{"HR", "Ops"}) {
		t.Errorf("TopGroups = %v, want [HR Ops]", got)
	}
	if TopGroups(tb, model.ColRegion, 2) != nil {
		t.Error("absent dimension should yield nil")
	}
}

func TestFilterRows(t *testing.T) {
	tb := tbl([]string{"Cost Center", "Planned"},
		[]any{"Marketing EU", 1},
		[]any{"Sales", 2},
		[]any{"marketing US", 3},
	)
	got := FilterRows(tb, model.ColCostCenter, "MARKETING")
	if got.Len() != 2 {
		t.Errorf("Len = %d, want 2", got.Len())
	}
	if FilterRows(tb, model.ColCostCenter, "") != tb {
		t.Error("empty filter should return the input table")
	}
}
