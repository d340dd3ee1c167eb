package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ScenarioSummary holds the unperturbed totals.
type ScenarioSummary struct {
	BasePlanned  float64 `json:"base_planned"`
	BaseActualFX float64 `json:"base_actual_fx"`
	BaseVariance float64 `json:"base_variance"`
}

// Scenario is one what-if perturbation of a single driver.
type Scenario struct {
	Name          string  `json:"name"`
	Axis          string  `json:"axis"`
	Pct           float64 `json:"pct"`
	TotalPlanned  float64 `json:"total_planned"`
	TotalActualFX float64 `json:"total_actual_fx"`
	TotalVariance float64 `json:"total_variance"`
	DeltaVsBase   float64 `json:"delta_vs_base"`
}

// ScenarioResult is the scenario bundle returned to callers.
type ScenarioResult struct {
	Summary   ScenarioSummary `json:"summary"`
	Scenarios []Scenario      `json:"scenarios"`
	Skipped   []string        `json:"skipped,omitempty"`
}

// Month is a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf truncates t to its calendar month.
func MonthOf(t time.Time) Month { return Month{Year: t.Year(), Month: t.Month()} }

// Before reports whether m sorts before o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// Time returns the first instant of the month in UTC.
func (m Month) Time() time.Time { return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC) }

func (m Month) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }

// MarshalJSON encodes the month as "YYYY-MM".
func (m Month) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }

// MonthPoint is one entry of the monthly alert series.
type MonthPoint struct {
	Month            Month    `json:"month"`
	Planned          float64  `json:"planned"`
	FXAdjustedActual float64  `json:"fx_adjusted_actual"`
	Ratio            float64  `json:"ratio"`
	Rolling3M        *float64 `json:"rolling_3m"`
}

// Crossing is a month whose rolling ratio reached the alert threshold.
type Crossing struct {
	Month Month   `json:"month"`
	Ratio float64 `json:"ratio"`
	Note  string  `json:"note"`
}

// AlertResult is the alert bundle returned to callers.
type AlertResult struct {
	Threshold float64      `json:"threshold"`
	Series    []MonthPoint `json:"series"`
	Crossings []Crossing   `json:"crossings"`
	Note      string       `json:"note,omitempty"`
}

// Summary holds the headline statistics that drive recommendations and
// playbook selection. Optional averages are nil when the column is absent.
type Summary struct {
	TotalPlanned          float64  `json:"total_planned"`
	TotalFXAdjustedActual float64  `json:"total_fx_adjusted_actual"`
	TotalVariance         float64  `json:"total_variance"`
	VariancePctOfPlan     float64  `json:"variance_pct_of_plan"`
	FXContributionPct     *float64 `json:"fx_contribution_pct"`
	AvgMargin             *float64 `json:"avg_margin"`
	AvgGrowth             *float64 `json:"avg_growth"`
	AvgUtilization        *float64 `json:"avg_utilization"`
}

// SummaryMetrics lists the metric names accepted by Summary.Metric.
var SummaryMetrics = []string{
	"total_planned",
	"total_fx_adjusted_actual",
	"total_variance",
	"variance_pct_of_plan",
	"abs_variance_pct_of_plan",
	"fx_contribution_pct",
	"avg_margin",
	"avg_growth",
	"avg_utilization",
}

// Metric looks up a summary statistic by name. ok is false for unknown
// names and for optional statistics that were not computed.
func (s Summary) Metric(name string) (float64, bool) {
	switch name {
	case "total_planned":
		return s.TotalPlanned, true
	case "total_fx_adjusted_actual":
		return s.TotalFXAdjustedActual, true
	case "total_variance":
		return s.TotalVariance, true
	case "variance_pct_of_plan":
		return s.VariancePctOfPlan, true
	case "abs_variance_pct_of_plan":
		if s.VariancePctOfPlan < 0 {
			return -s.VariancePctOfPlan, true
		}
		return s.VariancePctOfPlan, true
	case "fx_contribution_pct":
		return deref(s.FXContributionPct)
	case "avg_margin":
		return deref(s.AvgMargin)
	case "avg_growth":
		return deref(s.AvgGrowth)
	case "avg_utilization":
		return deref(s.AvgUtilization)
	}
	return 0, false
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

// NextAction is a canned recommendation produced by a rule.
type NextAction struct {
	Title           string   `json:"title"`
	Rationale       string   `json:"rationale"`
	HowTo           []string `json:"how_to"`
	ExpectedOutcome string   `json:"expected_outcome,omitempty"`
	Tags            []string `json:"tags"`
}

// Drilldown ranks the groups of one dimension by absolute variance.
type Drilldown struct {
	Dimension string   `json:"dimension"`
	Top       []string `json:"top"`
}

// Suggestion is the recommendation bundle.
type Suggestion struct {
	Summary     Summary      `json:"summary"`
	NextActions []NextAction `json:"next_actions"`
	Drilldowns  []Drilldown  `json:"-"`
}

// MarshalJSON renders drilldowns as a {dimension: labels} object.
func (s Suggestion) MarshalJSON() ([]byte, error) {
	dd := make(map[string][]string, len(s.Drilldowns))
	for _, d := range s.Drilldowns {
		dd[d.Dimension] = d.Top
	}
	return json.Marshal(struct {
		Summary     Summary             `json:"summary"`
		NextActions []NextAction        `json:"next_actions"`
		Drilldowns  map[string][]string `json:"drilldowns"`
	}{s.Summary, s.NextActions, dd})
}

// Reallocation is a per-row budget hint.
type Reallocation struct {
	Row      int     `json:"row"`
	Label    string  `json:"label"`
	Variance float64 `json:"variance"`
	Status   string  `json:"status"`
	Hint     string  `json:"hint"`
}
