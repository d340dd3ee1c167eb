package pipeline

import (
	"math"
	"testing"

	"github.com/theirongolddev/budgetlens/internal/model"
)

const tolerance = 1e-6

// tbl builds a table; float64/int become numbers, strings become text and
// nil a blank cell.
func tbl(cols []string, rows ...[]any) *model.Table {
	t := model.NewTable(cols)
	for _, r := range rows {
		vals := make([]model.Value, len(r))
		for i, c := range r {
			switch v := c.(type) {
			case nil:
			case float64:
				vals[i] = model.Number(v)
			case int:
				vals[i] = model.Number(float64(v))
			case string:
				vals[i] = model.Text(v)
			case model.Value:
				vals[i] = v
			}
		}
		t.AppendRow(vals)
	}
	return t
}

func approx(a, b float64) bool { return math.Abs(a-b) < tolerance }

func mustFloat(t *testing.T, tb *model.Table, row int, col string) float64 {
	t.Helper()
	f, ok := tb.Float(row, col)
	if !ok {
		t.Fatalf("%s[%d] = %+v, want a number", col, row, tb.Get(row, col))
	}
	return f
}
