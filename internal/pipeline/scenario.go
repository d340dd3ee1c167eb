package pipeline

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetlens/internal/model"
)

// Scenario axes.
const (
	AxisFX     = "FX"
	AxisPrice  = "Price"
	AxisVolume = "Volume"
)

// ScenarioShocks are the perturbations applied to each enabled axis, in order.
var ScenarioShocks = []float64{0.05, -0.05}

// ComputeScenarios recomputes total FX Adjusted Actual with one driver
// scaled at a time, holding Planned fixed.
//
// Axes are enabled by supplied columns: FX by FX Rate, Price by Price and
// Quantity, Volume by Quantity. Defaulted columns do not count. Axes whose
// columns are absent are skipped without error and listed in Skipped.
func ComputeScenarios(t *model.Table) model.ScenarioResult {
	basePlanned := Total(t, model.ColPlanned)
	baseActual := Total(t, model.ColFXAdjustedActual)
	baseVar := baseActual - basePlanned

	res := model.ScenarioResult{
		Summary: model.ScenarioSummary{
			BasePlanned:  basePlanned,
			BaseActualFX: baseActual,
			BaseVariance: baseVar,
		},
		Scenarios: []model.Scenario{},
	}

	add := func(axis string, pct float64, rowActual func(i int) (float64, bool)) {
		total := sumRows(t, rowActual)
		v := total - basePlanned
		res.Scenarios = append(res.Scenarios, model.Scenario{
			Name:          scenarioName(axis, pct),
			Axis:          axis,
			Pct:           pct,
			TotalPlanned:  basePlanned,
			TotalActualFX: total,
			TotalVariance: v,
			DeltaVsBase:   v - baseVar,
		})
	}

	hasFX := t.Supplied(model.ColFXRate)
	hasPrice := t.Supplied(model.ColPrice)
	hasQty := t.Supplied(model.ColQuantity)

	if hasFX {
		for _, pct := range ScenarioShocks {
			add(AxisFX, pct, func(i int) (float64, bool) {
				actual, ok := numeric(t.Get(i, model.ColActual), 0)
				if !ok {
					return 0, false
				}
				rate, ok := numeric(t.Get(i, model.ColFXRate), 1)
				if !ok {
					return 0, false
				}
				return actual * rate * (1 + pct), true
			})
		}
	} else {
		res.Skipped = append(res.Skipped, AxisFX)
	}

	if hasPrice && hasQty {
		for _, pct := range ScenarioShocks {
			add(AxisPrice, pct, func(i int) (float64, bool) {
				p, q, ok := priceQty(t, i)
				return p * (1 + pct) * q, ok
			})
		}
	} else {
		res.Skipped = append(res.Skipped, AxisPrice)
	}

	switch {
	case hasQty && hasPrice:
		for _, pct := range ScenarioShocks {
			add(AxisVolume, pct, func(i int) (float64, bool) {
				p, q, ok := priceQty(t, i)
				return p * q * (1 + pct), ok
			})
		}
	case hasQty:
		// Without a price, actuals scale with the quantity ratio. A zero or
		// unreadable quantity leaves the row unperturbed.
		for _, pct := range ScenarioShocks {
			add(AxisVolume, pct, func(i int) (float64, bool) {
				adj, ok := t.Float(i, model.ColFXAdjustedActual)
				if !ok {
					return 0, false
				}
				ratio := 1.0
				if q, ok := t.Float(i, model.ColQuantity); ok && q != 0 {
					ratio = q * (1 + pct) / q
				}
				return adj * ratio, true
			})
		}
	default:
		res.Skipped = append(res.Skipped, AxisVolume)
	}

	return res
}

func priceQty(t *model.Table, i int) (float64, float64, bool) {
	p, okP := t.Float(i, model.ColPrice)
	q, okQ := t.Float(i, model.ColQuantity)
	return p, q, okP && okQ
}

func sumRows(t *model.Table, f func(i int) (float64, bool)) float64 {
	sum := decimal.Zero
	for i := range t.Rows {
		if v, ok := f(i); ok {
			sum = sum.Add(decimal.NewFromFloat(v))
		}
	}
	return sum.InexactFloat64()
}

func scenarioName(axis string, pct float64) string {
	return fmt.Sprintf("%s %+.0f%%", axis, pct*100)
}
