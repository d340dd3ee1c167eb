package pipeline

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/budgetlens/internal/model"
)

// monthlyTable builds one row per month of 2024 with planned 1000 and the
// given actual/plan ratios.
func monthlyTable(t *testing.T, ratios ...float64) *model.Table {
	t.Helper()
	var rows [][]any
	for i, r := range ratios {
		rows = append(rows, []any{"CC1", time.Month(i + 1).String()[:3] + " 2024", 1000, 1000 * r})
	}
	return calculated(t, []string{"Cost Center", "Month", "Planned", "Actual"}, rows...)
}

func TestScanAlerts_Example(t *testing.T) {
	tb := monthlyTable(t, 1.0, 1.05, 1.10, 1.12)
	res := ScanAlerts(tb, 0.08)

	if len(res.Series) != 4 {
		t.Fatalf("series len = %d, want 4", len(res.Series))
	}
	for i := 0; i < 2; i++ {
		if res.Series[i].Rolling3M != nil {
			t.Errorf("month %d rolling = %v, want nil", i+1, *res.Series[i].Rolling3M)
		}
	}
	if r := res.Series[2].Rolling3M; r == nil || !approx(*r, 1.05) {
		t.Errorf("month 3 rolling = %v, want 1.05", r)
	}
	if r := res.Series[3].Rolling3M; r == nil || !approx(*r, 1.09) {
		t.Errorf("month 4 rolling = %v, want 1.09", r)
	}

	if len(res.Crossings) != 1 {
		t.Fatalf("crossings = %d, want 1", len(res.Crossings))
	}
	c := res.Crossings[0]
	if c.Month.String() != "2024-04" {
		t.Errorf("crossing month = %s, want 2024-04", c.Month)
	}
	if c.Ratio < 1.08 {
		t.Errorf("crossing ratio = %v, want >= 1.08", c.Ratio)
	}
	if c.Note != "Rolling 3M Actual > Plan by 8%+" {
		t.Errorf("note = %q", c.Note)
	}
}

func TestScanAlerts_NoMonthColumn(t *testing.T) {
	tb := model.NewTable(nil)
	res := ScanAlerts(tb, DefaultAlertThreshold)

	if len(res.Series) != 0 || len(res.Crossings) != 0 {
		t.Errorf("series/crossings = %d/%d, want empty", len(res.Series), len(res.Crossings))
	}
	if res.Note != NoMonthNote {
		t.Errorf("note = %q, want %q", res.Note, NoMonthNote)
	}

	b, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"series":[]`) {
		t.Errorf("json = %s, want empty series array", b)
	}
}

func TestScanAlerts_CrossingsRespectThreshold(t *testing.T) {
	tb := monthlyTable(t, 1.2, 0.9, 1.3, 1.1, 1.0, 1.25, 1.15, 0.95)
	for _, th := range []float64{0, 0.05, 0.08, 0.15} {
		res := ScanAlerts(tb, th)
		for _, c := range res.Crossings {
			if c.Ratio < 1+th-1e-9 {
				t.Errorf("th=%v: crossing %s ratio %v below limit", th, c.Month, c.Ratio)
			}
		}
		for i, p := range res.Series {
			if p.Rolling3M == nil {
				continue
			}
			var sum float64
			for _, q := range res.Series[i-2 : i+1] {
				sum += q.Ratio
			}
			if !approx(*p.Rolling3M, sum/3) {
				t.Errorf("th=%v month %s rolling = %v, want %v", th, p.Month, *p.Rolling3M, sum/3)
			}
		}
	}
}

func TestScanAlerts_AggregatesAndSorts(t *testing.T) {
	tb := calculated(t, []string{"Cost Center", "Month", "Planned", "Actual"},
		[]any{"A", "2024-03-15", 100, 120},
		[]any{"B", "2024-01", 100, 100},
		[]any{"A", "2024-03-02", 100, 80},
		[]any{"C", "not a month", 100, 999},
		[]any{"D", nil, 100, 999},
		[]any{"E", "2024-02", 0, 50},
	)
	res := ScanAlerts(tb, 0.08)

	if len(res.Series) != 3 {
		t.Fatalf("series len = %d, want 3 (unparseable months dropped)", len(res.Series))
	}
	got := []string{res.Series[0].Month.String(), res.Series[1].Month.String(), res.Series[2].Month.String()}
	if strings.Join(got, ",") != "2024-01,2024-02,2024-03" {
		t.Errorf("months = %v", got)
	}
	feb := res.Series[1]
	if feb.Ratio != 1.0 {
		t.Errorf("zero-plan ratio = %v, want 1.0", feb.Ratio)
	}
	mar := res.Series[2]
	if mar.Planned != 200 || mar.FXAdjustedActual != 200 {
		t.Errorf("March sums = %v/%v, want 200/200", mar.Planned, mar.FXAdjustedActual)
	}
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		name string
		v    model.Value
		want string
		ok   bool
	}{
		{"iso date", model.Text("2024-05-17"), "2024-05", true},
		{"year month", model.Text("2024-05"), "2024-05", true},
		{"slash", model.Text("2024/11"), "2024-11", true},
		{"us date", model.Text("07/04/2024"), "2024-07", true},
		{"short name", model.Text("Sep 2023"), "2023-09", true},
		{"long name", model.Text("December 2023"), "2023-12", true},
		{"yyyymm text", model.Text("202402"), "2024-02", true},
		{"yyyymm number", model.Number(202402), "2024-02", true},
		{"excel serial", model.Number(45292), "2024-01", true},
		{"excel serial text", model.Text("45323"), "2024-02", true},
		{"time cell", model.TimeValue(time.Date(2022, 8, 9, 0, 0, 0, 0, time.UTC)), "2022-08", true},
		{"garbage", model.Text("Q3"), "", false},
		{"blank", model.Value{}, "", false},
		{"percent", model.Text("12%"), "", false},
		{"negative", model.Number(-5), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := ParseMonth(tt.v)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && m.String() != tt.want {
				t.Errorf("month = %s, want %s", m, tt.want)
			}
		})
	}
}
