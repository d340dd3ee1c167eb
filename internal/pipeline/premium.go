package pipeline

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetlens/internal/model"
)

// Reallocation statuses.
const (
	StatusOverspend = "overspend"
	StatusSurplus   = "surplus"
	StatusOnTrack   = "on track"
)

// AccuracyScore rates the plan from 0 to 100 by penalizing mean absolute
// variance: max(0, 100 - mean|Variance|/100), rounded to 2 places. A table
// without readable variance scores 0.
func AccuracyScore(t *model.Table) float64 {
	sum := decimal.Zero
	var n int64
	for i := range t.Rows {
		if v, ok := t.Float(i, model.ColVariance); ok {
			sum = sum.Add(decimal.NewFromFloat(math.Abs(v)))
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum.Div(decimal.NewFromInt(n))
	score := decimal.NewFromInt(100).Sub(mean.Div(decimal.NewFromInt(100)))
	if score.IsNegative() {
		return 0
	}
	return score.Round(2).InexactFloat64()
}

// Reallocations classifies each row's variance against +/- band.
// Positive variance is spend above plan.
func Reallocations(t *model.Table, band float64) []model.Reallocation {
	out := make([]model.Reallocation, 0, t.Len())
	for i := range t.Rows {
		v, ok := t.Float(i, model.ColVariance)
		if !ok {
			v = 0
		}
		r := model.Reallocation{
			Row:      i,
			Label:    t.Label(i, model.ColCostCenter),
			Variance: v,
		}
		switch {
		case v > band:
			r.Status = StatusOverspend
			r.Hint = "Overspend detected; review cost plan"
		case v < -band:
			r.Status = StatusSurplus
			r.Hint = "Consider reallocating surplus budget"
		default:
			r.Status = StatusOnTrack
			r.Hint = "On track"
		}
		out = append(out, r)
	}
	return out
}
