// Package pipeline turns an uploaded budget table into variance,
// aggregation, scenario, alert, and recommendation results.
package pipeline

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetlens/internal/model"
)

// Order selects how aggregated groups are sorted.
type Order struct {
	byAbs string
}

// OrderFirstSeen keeps groups in the order their first row appeared.
var OrderFirstSeen = Order{}

// OrderByAbs sorts groups by descending absolute value of column.
// Ties keep first-seen order.
func OrderByAbs(column string) Order { return Order{byAbs: column} }

// GroupSpec describes one aggregation call.
type GroupSpec struct {
	Keys  []string // grouping columns; absent ones are ignored
	Sum   []string // measures to sum
	Mean  []string // percent-type measures to average
	Order Order
}

// Default measure sets for the standard summary.
var (
	SummaryKeys     = []string{model.ColVersion, model.ColScenario, model.ColCostCenter}
	SummaryMeasures = []string{model.ColPlanned, model.ColActual, model.ColFXAdjustedActual, model.ColVariance}
	PercentMeasures = []string{model.ColMargin, model.ColGrowth, model.ColUtilization}
)

type group struct {
	labels []model.Value
	sums   []decimal.Decimal
	means  []meanAcc
}

type meanAcc struct {
	total decimal.Decimal
	n     int64
}

// Aggregate partitions rows by the distinct combination of present key
// columns and returns one row per group: key columns, then summed
// measures, then averaged percent measures. Missing cells are skipped;
// a group with no numeric cells sums to 0. A blank key forms its own group.
func Aggregate(t *model.Table, spec GroupSpec) *model.Table {
	keys := present(t, spec.Keys)
	sums := present(t, spec.Sum)
	means := present(t, spec.Mean)

	cols := make([]string, 0, len(keys)+len(sums)+len(means))
	cols = append(cols, keys...)
	cols = append(cols, sums...)
	cols = append(cols, means...)
	out := model.NewTable(cols)

	index := make(map[string]int)
	var groups []*group

	for i := range t.Rows {
		parts := make([]string, len(keys))
		for k, col := range keys {
			parts[k] = t.Label(i, col)
		}
		key := strings.Join(parts, "\x1f")

		gi, ok := index[key]
		if !ok {
			g := &group{
				labels: make([]model.Value, len(keys)),
				sums:   make([]decimal.Decimal, len(sums)),
				means:  make([]meanAcc, len(means)),
			}
			for k, col := range keys {
				g.labels[k] = t.Get(i, col)
			}
			gi = len(groups)
			index[key] = gi
			groups = append(groups, g)
		}
		g := groups[gi]

		for m, col := range sums {
			if f, ok := t.Float(i, col); ok {
				g.sums[m] = g.sums[m].Add(decimal.NewFromFloat(f))
			}
		}
		for m, col := range means {
			if f, ok := t.Float(i, col); ok {
				g.means[m].total = g.means[m].total.Add(decimal.NewFromFloat(f))
				g.means[m].n++
			}
		}
	}

	for _, g := range groups {
		row := make([]model.Value, 0, len(cols))
		row = append(row, g.labels...)
		for _, s := range g.sums {
			row = append(row, model.Number(s.InexactFloat64()))
		}
		for _, m := range g.means {
			if m.n == 0 {
				row = append(row, model.Missing())
				continue
			}
			row = append(row, model.Number(m.total.Div(decimal.NewFromInt(m.n)).InexactFloat64()))
		}
		out.AppendRow(row)
	}

	if spec.Order.byAbs != "" {
		sortByAbs(out, spec.Order.byAbs)
	}
	return out
}

// Summarize groups by Version, Scenario and Cost Center (whichever exist)
// and sums Planned, Actual, FX Adjusted Actual and Variance. First-seen order.
func Summarize(t *model.Table) *model.Table {
	return Aggregate(t, GroupSpec{
		Keys:  SummaryKeys,
		Sum:   SummaryMeasures,
		Mean:  PercentMeasures,
		Order: OrderFirstSeen,
	})
}

// TopGroups returns up to n labels of dimension ranked by absolute summed
// Variance, largest first.
func TopGroups(t *model.Table, dimension string, n int) []string {
	agg := Aggregate(t, GroupSpec{
		Keys:  []string{dimension},
		Sum:   []string{model.ColVariance},
		Order: OrderByAbs(model.ColVariance),
	})
	if !agg.Has(dimension) {
		return nil
	}
	labels := make([]string, 0, n)
	for i := 0; i < agg.Len() && len(labels) < n; i++ {
		labels = append(labels, agg.Label(i, dimension))
	}
	return labels
}

// Total sums a numeric column, skipping missing cells. Absent columns sum to 0.
func Total(t *model.Table, column string) float64 {
	sum := decimal.Zero
	for i := range t.Rows {
		if f, ok := t.Float(i, column); ok {
			sum = sum.Add(decimal.NewFromFloat(f))
		}
	}
	return sum.InexactFloat64()
}

// Mean averages the readable cells of column. ok is false when the column
// is absent or holds no numbers.
func Mean(t *model.Table, column string) (float64, bool) {
	if !t.Has(column) {
		return 0, false
	}
	sum := decimal.Zero
	var n int64
	for i := range t.Rows {
		if f, ok := t.Float(i, column); ok {
			sum = sum.Add(decimal.NewFromFloat(f))
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum.Div(decimal.NewFromInt(n)).InexactFloat64(), true
}

// FilterRows returns the rows whose column contains substr, ignoring case.
func FilterRows(t *model.Table, column, substr string) *model.Table {
	if substr == "" || !t.Has(column) {
		return t
	}
	out := t.Head(0)
	for i, row := range t.Rows {
		if containsIgnoreCase(t.Label(i, column), substr) {
			out.AppendRow(row)
		}
	}
	return out
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func sortByAbs(t *model.Table, column string) {
	idx := t.Index(column)
	if idx < 0 {
		return
	}
	abs := func(row []model.Value) float64 {
		f, ok := row[idx].Float()
		if !ok {
			return -1
		}
		return math.Abs(f)
	}
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return abs(t.Rows[i]) > abs(t.Rows[j])
	})
}

func present(t *model.Table, cols []string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if t.Has(c) {
			out = append(out, c)
		}
	}
	return out
}
