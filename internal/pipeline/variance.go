package pipeline

import "github.com/theirongolddev/budgetlens/internal/model"

// Calculate derives FX Adjusted Actual and Variance for every row.
//
//	FX Adjusted Actual = Actual * FX Rate   (Actual when no rate is given)
//	Variance           = FX Adjusted Actual - Planned
//
// Both columns are always recomputed from Actual, FX Rate and Planned, so
// running Calculate twice yields the same values. Blank Planned and Actual
// cells count as 0; a blank FX Rate counts as 1. A cell that cannot be read
// as a number makes the derived cells of that row Missing.
func Calculate(t *model.Table) {
	fxAdj := make([]model.Value, t.Len())
	variance := make([]model.Value, t.Len())
	hasRate := t.Has(model.ColFXRate)

	for i := range t.Rows {
		actual, okA := numeric(t.Get(i, model.ColActual), 0)
		planned, okP := numeric(t.Get(i, model.ColPlanned), 0)
		rate, okR := 1.0, true
		if hasRate {
			rate, okR = numeric(t.Get(i, model.ColFXRate), 1)
		}

		if !okA || !okR {
			fxAdj[i] = model.Missing()
			variance[i] = model.Missing()
			continue
		}
		adj := actual * rate
		fxAdj[i] = model.Number(adj)
		if !okP {
			variance[i] = model.Missing()
			continue
		}
		variance[i] = model.Number(adj - planned)
	}

	t.SetColumn(model.ColFXAdjustedActual, fxAdj)
	t.SetColumn(model.ColVariance, variance)
}

// numeric reads v as a number; blank cells yield def.
func numeric(v model.Value, def float64) (float64, bool) {
	if v.IsBlank() {
		return def, true
	}
	return v.Float()
}
