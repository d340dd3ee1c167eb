package pipeline

import (
	"errors"
	"slices"
	"testing"

	"github.com/theirongolddev/budgetlens/internal/config"
	"github.com/theirongolddev/budgetlens/internal/model"
)

func TestNormalize_Aliases(t *testing.T) {
	tb := tbl([]string{"CostCenter", "Budget", "Actuals", "fx  rate", "Notes"},
		[]any{"CC1", 100, 90, 1.1, "x"},
	)
	Normalize(tb, config.DefaultColumns().Aliases)

	want := []string{"Cost Center", "Planned", "Actual", "FX Rate", "Notes"}
	if !slices.Equal(tb.Columns, want) {
		t.Errorf("Columns = %v, want %v", tb.Columns, want)
	}
}

func TestNormalize_CanonicalUntouched(t *testing.T) {
	tb := tbl([]string{"Planned", "Plan", "Cost Center"},
		[]any{100, 200, "CC1"},
	)
	Normalize(tb, config.DefaultColumns().Aliases)

	want := []string{"Planned", "Plan", "Cost Center"}
	if !slices.Equal(tb.Columns, want) {
		t.Errorf("Columns = %v, want %v (alias left alone when canonical exists)", tb.Columns, want)
	}
}

func TestNormalize_FirstAliasWins(t *testing.T) {
	// Both "Budget" and "Plan" map to Planned; "Plan" is declared first.
	tb := tbl([]string{"Budget", "Plan"}, []any{1, 2})
	Normalize(tb, config.DefaultColumns().Aliases)

	want := []string{"Budget", "Planned"}
	if !slices.Equal(tb.Columns, want) {
		t.Errorf("Columns = %v, want %v", tb.Columns, want)
	}
}

func TestNormalize_ColumnClaimedOnce(t *testing.T) {
	aliases := []config.ColumnAlias{
		{Canonical: "Planned", Names: []string{"Amount"}},
		{Canonical: "Actual", Names: []string{"Amount"}},
	}
	tb := tbl([]string{"Amount"}, []any{1})
	Normalize(tb, aliases)

	if !slices.Equal(tb.Columns, []string{"Planned"}) {
		t.Errorf("Columns = %v, want [Planned]", tb.Columns)
	}
}

func TestValidate_MissingBoth(t *testing.T) {
	tb := tbl([]string{"Actual", "Region"}, []any{1, "EU"})
	Normalize(tb, config.DefaultColumns().Aliases)

	err := Validate(tb, config.DefaultColumns().Required)
	var mce *MissingColumnsError
	if !errors.As(err, &mce) {
		t.Fatalf("err = %v, want *MissingColumnsError", err)
	}
	if !slices.Equal(mce.Missing, []string{"Cost Center", "Planned"}) {
		t.Errorf("Missing = %v, want [Cost Center Planned]", mce.Missing)
	}
	if !slices.Equal(mce.Found, []string{"Actual", "Region"}) {
		t.Errorf("Found = %v", mce.Found)
	}
	if got := mce.Error(); got != "missing required columns: Cost Center, Planned" {
		t.Errorf("Error() = %q", got)
	}
}

func TestValidate_OK(t *testing.T) {
	tb := tbl([]string{"Cost Center", "Planned"}, []any{"CC1", 1})
	if err := Validate(tb, config.DefaultColumns().Required); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFillDefaults(t *testing.T) {
	tb := tbl([]string{"Cost Center", "Planned"}, []any{"CC1", 100})
	FillDefaults(tb)

	if got := mustFloat(t, tb, 0, model.ColActual); got != 0 {
		t.Errorf("Actual = %v, want 0", got)
	}
	if got := mustFloat(t, tb, 0, model.ColFXRate); got != 1 {
		t.Errorf("FX Rate = %v, want 1", got)
	}
	if tb.Supplied(model.ColFXRate) || tb.Supplied(model.ColActual) {
		t.Error("defaulted columns should not count as supplied")
	}

	supplied := tbl([]string{"Cost Center", "Planned", "FX Rate"}, []any{"CC1", 100, 1.3})
	FillDefaults(supplied)
	if !supplied.Supplied(model.ColFXRate) {
		t.Error("FX Rate from input should stay supplied")
	}
	if got := mustFloat(t, supplied, 0, model.ColFXRate); got != 1.3 {
		t.Errorf("FX Rate = %v, want 1.3 (not overwritten)", got)
	}
}
