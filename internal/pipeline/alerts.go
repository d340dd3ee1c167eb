package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/budgetlens/internal/model"
)

// DefaultAlertThreshold flags a rolling ratio of 108% of plan or more.
const DefaultAlertThreshold = 0.08

// RollingWindow is the number of series entries in the trailing mean.
const RollingWindow = 3

// NoMonthNote is returned when alerts cannot run for lack of a Month column.
const NoMonthNote = "No 'Month' column; alerts skipped."

// crossingEpsilon absorbs float error so a rolling mean that equals the
// limit in decimal terms still counts as a crossing.
const crossingEpsilon = 1e-9

var monthLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006/01/02",
	"2006/01",
	"01/02/2006",
	"1/2/2006",
	"Jan 2006",
	"January 2006",
	"Jan-2006",
	"Jan-06",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"200601",
}

// ScanAlerts sums Planned and FX Adjusted Actual per calendar month,
// computes actual/plan ratios and their trailing 3-month mean, and flags
// months where the mean reaches 1 + threshold.
//
// Rows whose Month cannot be read are dropped. A month with zero plan has
// ratio 1. The first two months never carry a rolling value.
func ScanAlerts(t *model.Table, threshold float64) model.AlertResult {
	res := model.AlertResult{
		Threshold: threshold,
		Series:    []model.MonthPoint{},
		Crossings: []model.Crossing{},
	}
	if !t.Has(model.ColMonth) {
		res.Note = NoMonthNote
		return res
	}

	type bucket struct {
		planned, actual decimal.Decimal
	}
	buckets := make(map[model.Month]*bucket)
	for i := range t.Rows {
		m, ok := ParseMonth(t.Get(i, model.ColMonth))
		if !ok {
			continue
		}
		b, ok := buckets[m]
		if !ok {
			b = &bucket{}
			buckets[m] = b
		}
		if f, ok := t.Float(i, model.ColPlanned); ok {
			b.planned = b.planned.Add(decimal.NewFromFloat(f))
		}
		if f, ok := t.Float(i, model.ColFXAdjustedActual); ok {
			b.actual = b.actual.Add(decimal.NewFromFloat(f))
		}
	}

	months := make([]model.Month, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	limit := 1 + threshold
	note := fmt.Sprintf("Rolling 3M Actual > Plan by %.0f%%+", threshold*100)
	for i, m := range months {
		b := buckets[m]
		ratio := 1.0
		if !b.planned.IsZero() {
			ratio = b.actual.Div(b.planned).InexactFloat64()
		}
		pt := model.MonthPoint{
			Month:            m,
			Planned:          b.planned.InexactFloat64(),
			FXAdjustedActual: b.actual.InexactFloat64(),
			Ratio:            ratio,
		}
		res.Series = append(res.Series, pt)

		if i+1 < RollingWindow {
			continue
		}
		var sum float64
		for _, p := range res.Series[i+1-RollingWindow:] {
			sum += p.Ratio
		}
		rolling := sum / RollingWindow
		res.Series[i].Rolling3M = &rolling

		if rolling >= limit-crossingEpsilon {
			res.Crossings = append(res.Crossings, model.Crossing{
				Month: m,
				Ratio: rolling,
				Note:  note,
			})
		}
	}
	return res
}

// ParseMonth coerces a cell to a calendar month. It accepts date cells,
// Excel serial numbers, yyyymm integers, and common text layouts.
func ParseMonth(v model.Value) (model.Month, bool) {
	switch v.Kind {
	case model.KindTime:
		return model.MonthOf(v.Time), true
	case model.KindNumber:
		return monthFromNumber(v.Num)
	case model.KindText:
		s := strings.TrimSpace(v.Str)
		for _, layout := range monthLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return model.MonthOf(ts), true
			}
		}
		if f, ok := model.ParseNumber(s); ok && !strings.HasSuffix(s, "%") {
			return monthFromNumber(f)
		}
	}
	return model.Month{}, false
}

func monthFromNumber(f float64) (model.Month, bool) {
	if f >= 190001 && f <= 999912 && f == float64(int(f)) {
		y, m := int(f)/100, int(f)%100
		if m >= 1 && m <= 12 {
			return model.Month{Year: y, Month: time.Month(m)}, true
		}
		return model.Month{}, false
	}
	if f <= 0 || f > 2958465 {
		return model.Month{}, false
	}
	ts, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return model.Month{}, false
	}
	return model.MonthOf(ts), true
}
