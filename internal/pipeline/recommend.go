package pipeline

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetlens/internal/config"
	"github.com/theirongolddev/budgetlens/internal/model"
)

// DrilldownFallback is ranked when none of the configured dimensions exist.
const DrilldownFallback = model.ColCostCenter

// SummaryOf computes the headline statistics used by the rules and by
// playbook conditions.
func SummaryOf(t *model.Table) model.Summary {
	s := model.Summary{
		TotalPlanned:          Total(t, model.ColPlanned),
		TotalFXAdjustedActual: Total(t, model.ColFXAdjustedActual),
	}
	s.TotalVariance = s.TotalFXAdjustedActual - s.TotalPlanned
	if s.TotalPlanned != 0 {
		s.VariancePctOfPlan = s.TotalVariance / s.TotalPlanned
	}
	if t.Supplied(model.ColFXRate) {
		fx := fxContribution(t)
		s.FXContributionPct = &fx
	}
	if m, ok := Mean(t, model.ColMargin); ok {
		s.AvgMargin = &m
	}
	if g, ok := Mean(t, model.ColGrowth); ok {
		s.AvgGrowth = &g
	}
	if u, ok := Mean(t, model.ColUtilization); ok {
		s.AvgUtilization = &u
	}
	return s
}

// fxContribution is the variance-weighted share of each row's variance
// explained by FX, (FX Adjusted Actual - Actual) / Variance. Per-row
// shares are clamped to [-1, 1] so the weighted result stays in that range.
func fxContribution(t *model.Table) float64 {
	weighted := decimal.Zero
	weight := decimal.Zero
	for i := range t.Rows {
		v, ok := t.Float(i, model.ColVariance)
		if !ok {
			continue
		}
		absV := decimal.NewFromFloat(math.Abs(v))
		weight = weight.Add(absV)
		if v == 0 {
			continue
		}
		adj, okAdj := t.Float(i, model.ColFXAdjustedActual)
		actual, okAct := numeric(t.Get(i, model.ColActual), 0)
		if !okAdj || !okAct {
			continue
		}
		share := clamp((adj-actual)/v, -1, 1)
		weighted = weighted.Add(decimal.NewFromFloat(share).Mul(absV))
	}
	if weight.IsZero() {
		weight = decimal.NewFromInt(1)
	}
	return weighted.Div(weight).InexactFloat64()
}

// Recommend evaluates the fixed rule battery in order and ranks drilldown
// dimensions. Rules whose input column is absent are disabled. The final
// early-warning action is always present.
func Recommend(t *model.Table, th config.Thresholds, drilldown []string) model.Suggestion {
	s := SummaryOf(t)
	actions := make([]model.NextAction, 0, 6)

	if s.TotalPlanned != 0 && math.Abs(s.TotalVariance)/math.Abs(s.TotalPlanned) >= th.VarianceWarnPctOfPlan {
		direction := "favorable"
		if s.TotalVariance > 0 {
			direction = "unfavorable"
		}
		actions = append(actions, model.NextAction{
			Title:     fmt.Sprintf("Drill down top %d variance drivers by Category and Department", th.TopN),
			Rationale: fmt.Sprintf("Total variance is %s at %s of plan.", direction, pct1(s.VariancePctOfPlan)),
			HowTo: []string{
				"Group by Category, Department (and Month if available); sum Planned, Actual, FX Adjusted Actual, Variance.",
				"Rank by absolute Variance; focus on top drivers.",
				"For each driver, compare last 3 months trend vs baseline.",
			},
			ExpectedOutcome: "You will isolate 3-5 root drivers explaining ~80% of the gap.",
			Tags:            []string{"variance", "driver-analysis"},
		})
	}

	if s.FXContributionPct != nil && *s.FXContributionPct >= th.FXContribWarnPct {
		actions = append(actions, model.NextAction{
			Title:     "Run FX impact decomposition and simulate hedging scenarios",
			Rationale: fmt.Sprintf("FX explains ~%s of variance across drivers.", pct0(*s.FXContributionPct)),
			HowTo: []string{
				"For each Category, compute variance with FX=1.0 (neutral) vs actual FX.",
				"Quantify the portion of gap due to FX vs operational factors.",
				"Simulate ±5% FX moves to estimate sensitivity and recommend hedging size.",
			},
			ExpectedOutcome: "Quantified FX-attributable gap and hedging playbook.",
			Tags:            []string{"fx", "hedging", "sensitivity"},
		})
	}

	if s.AvgMargin != nil && *s.AvgMargin < th.MarginWarn {
		actions = append(actions, model.NextAction{
			Title:     "Margin rescue: decompose COGS vs SG&A pressure",
			Rationale: fmt.Sprintf("Average margin %s is below the %s threshold.", pct1(*s.AvgMargin), pct0(th.MarginWarn)),
			HowTo: []string{
				"Benchmark Margin by Category and Customer segment.",
				"Split variance into Price, Mix, Volume, and Cost effects if inputs available.",
				"Flag products with negative unit economics or discount leakage.",
			},
			ExpectedOutcome: "Set of actions to restore margin by 2-5 pp.",
			Tags:            []string{"margin", "price", "cost"},
		})
	}

	if s.AvgGrowth != nil && *s.AvgGrowth <= th.GrowthWarn {
		actions = append(actions, model.NextAction{
			Title:     "Sales pipeline vs actual conversion analysis",
			Rationale: fmt.Sprintf("Average growth %s is at or below %s.", pct1(*s.AvgGrowth), pct0(th.GrowthWarn)),
			HowTo: []string{
				"Compare forecast vs actual by month; compute forecast bias.",
				"Identify regions/products with steepest decline; correlate with FX and pricing changes.",
				"Propose recovery actions (promo, pricing, channel mix).",
			},
			ExpectedOutcome: "Targeted recovery plan for next 1-2 quarters.",
			Tags:            []string{"growth", "sales", "forecast-bias"},
		})
	}

	if s.AvgUtilization != nil && *s.AvgUtilization < th.UtilWarn {
		actions = append(actions, model.NextAction{
			Title:     "Capacity utilization & cost absorption study",
			Rationale: fmt.Sprintf("Average utilization %s is below %s.", pct1(*s.AvgUtilization), pct0(th.UtilWarn)),
			HowTo: []string{
				"Analyze fixed vs variable cost absorption by line/site.",
				"Simulate load increases to see margin recapture potential.",
				"Recommend temporary cost containment or load shift.",
			},
			ExpectedOutcome: "Actions to improve utilization and margin absorption.",
			Tags:            []string{"utilization", "ops", "cost-absorption"},
		})
	}

	actions = append(actions, model.NextAction{
		Title:     "Early-warning trend scan",
		Rationale: "Proactive detection prevents month-end surprises.",
		HowTo: []string{
			"Compute rolling 3-month trend for Planned vs Actual by driver.",
			fmt.Sprintf("Flag crossings where Actual consistently exceeds Plan by >%s.", pct0(th.AlertPct)),
			"Add alerts for sudden deltas vs prior month.",
		},
		ExpectedOutcome: "Lightweight alert feed for finance + ops.",
		Tags:            []string{"early-warning", "trend", "alerts"},
	})

	return model.Suggestion{
		Summary:     s,
		NextActions: actions,
		Drilldowns:  Drilldowns(t, drilldown, th.TopN),
	}
}

// Drilldowns ranks the top n groups of each present dimension, in the
// given priority order. When none is present it ranks Cost Center.
func Drilldowns(t *model.Table, dimensions []string, n int) []model.Drilldown {
	var out []model.Drilldown
	for _, dim := range dimensions {
		if !t.Has(dim) {
			continue
		}
		out = append(out, model.Drilldown{Dimension: dim, Top: TopGroups(t, dim, n)})
	}
	if len(out) == 0 && t.Has(DrilldownFallback) {
		out = append(out, model.Drilldown{
			Dimension: DrilldownFallback,
			Top:       TopGroups(t, DrilldownFallback, n),
		})
	}
	return out
}

func pct1(f float64) string { return fmt.Sprintf("%.1f%%", f*100) }
func pct0(f float64) string { return fmt.Sprintf("%.0f%%", f*100) }

func clamp(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, f))
}
