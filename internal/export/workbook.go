// Package export renders pipeline results as a styled Excel workbook and
// as the zipped executive bundle.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/budgetlens/internal/cli"
	"github.com/theirongolddev/budgetlens/internal/config"
	"github.com/theirongolddev/budgetlens/internal/model"
	"github.com/theirongolddev/budgetlens/internal/pipeline"
)

// Sheet names, in workbook order.
const (
	SheetKPIs         = "KPIs"
	SheetTopVariances = "Top Variances"
	SheetData         = "Data"
	SheetScenarios    = "Scenarios"
	SheetAlerts       = "Alerts"
	SheetNextActions  = "Next Actions"
	SheetPlaybooks    = "Playbooks"
	SheetReallocation = "Reallocation"
)

const (
	moneyFormat   = "#,##0.00"
	percentFormat = "0.00%"
)

// Options controls the workbook layout.
type Options struct {
	Scale cli.Scale
	TopN  int

	// Dimensions is the priority list for the Top Variances sheet. The
	// first dimension present in the data wins; Cost Center otherwise.
	Dimensions []string
}

// DefaultOptions returns raw amounts, ten top variances and the stock
// drilldown priority.
func DefaultOptions() Options {
	return Options{
		Scale:      cli.ScaleRaw,
		TopN:       10,
		Dimensions: config.DefaultColumns().Drilldown,
	}
}

type styles struct {
	title, header, money, percent, wrap int
}

// WriteWorkbook renders res and writes the xlsx bytes to w.
func WriteWorkbook(w io.Writer, res *pipeline.Result, opts Options) error {
	f, err := Workbook(res, opts)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// Workbook builds the dashboard workbook. Stages left nil in res (because
// the tier disabled them) get no sheet. The caller must Close the file.
func Workbook(res *pipeline.Result, opts Options) (*excelize.File, error) {
	if opts.TopN < 1 {
		opts.TopN = DefaultOptions().TopN
	}
	f := excelize.NewFile()
	st, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.SetSheetName("Sheet1", SheetKPIs); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	steps := []func(*excelize.File, *pipeline.Result, Options, styles) error{
		writeKPIs,
		writeTopVariances,
		writeData,
		writeScenarios,
		writeAlerts,
		writeNextActions,
		writePlaybooks,
		writeReallocation,
	}
	for _, step := range steps {
		if err := step(f, res, opts, st); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func newStyles(f *excelize.File) (styles, error) {
	money, pct := moneyFormat, percentFormat
	defs := []*excelize.Style{
		{Font: &excelize.Font{Bold: true, Size: 16}},
		{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"EEEEEE"}},
		},
		{CustomNumFmt: &money, Alignment: &excelize.Alignment{Horizontal: "right"}},
		{CustomNumFmt: &pct, Alignment: &excelize.Alignment{Horizontal: "right"}},
		{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}},
	}
	ids := make([]int, len(defs))
	for i, d := range defs {
		id, err := f.NewStyle(d)
		if err != nil {
			return styles{}, fmt.Errorf("creating style: %w", err)
		}
		ids[i] = id
	}
	return styles{title: ids[0], header: ids[1], money: ids[2], percent: ids[3], wrap: ids[4]}, nil
}

// sheet accumulates the first error so that long runs of cell writes
// stay readable.
type sheet struct {
	f    *excelize.File
	name string
	err  error
}

func newSheet(f *excelize.File, name string) *sheet {
	s := &sheet{f: f, name: name}
	if idx, _ := f.GetSheetIndex(name); idx < 0 {
		if _, err := f.NewSheet(name); err != nil {
			s.err = fmt.Errorf("adding sheet %s: %w", name, err)
		}
	}
	return s
}

func (s *sheet) row(r int, vals ...any) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, r)
	if err == nil {
		err = s.f.SetSheetRow(s.name, cell, &vals)
	}
	if err != nil {
		s.err = fmt.Errorf("sheet %s row %d: %w", s.name, r, err)
	}
}

// style applies id to the rectangle (c1,r1)-(c2,r2), 1-based.
func (s *sheet) style(c1, r1, c2, r2, id int) {
	if s.err != nil {
		return
	}
	from, err := excelize.CoordinatesToCellName(c1, r1)
	if err != nil {
		s.err = err
		return
	}
	to, err := excelize.CoordinatesToCellName(c2, r2)
	if err != nil {
		s.err = err
		return
	}
	if err := s.f.SetCellStyle(s.name, from, to, id); err != nil {
		s.err = fmt.Errorf("sheet %s style: %w", s.name, err)
	}
}

func (s *sheet) widths(ws ...float64) {
	for i, w := range ws {
		if s.err != nil {
			return
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err == nil {
			err = s.f.SetColWidth(s.name, col, col, w)
		}
		if err != nil {
			s.err = fmt.Errorf("sheet %s width: %w", s.name, err)
		}
	}
}

func (s *sheet) header(r int, st styles, cols ...string) {
	vals := make([]any, len(cols))
	for i, c := range cols {
		vals[i] = c
	}
	s.row(r, vals...)
	s.style(1, r, len(cols), r, st.header)
}

func writeKPIs(f *excelize.File, res *pipeline.Result, opts Options, st styles) error {
	s := newSheet(f, SheetKPIs)
	sum := pipeline.SummaryOf(res.Table)
	if res.Suggestion != nil {
		sum = res.Suggestion.Summary
	}
	suffix := opts.Scale.Suffix()

	s.row(1, "Executive Finance Dashboard")
	s.style(1, 1, 1, 1, st.title)
	s.row(2, "Tier", res.Tier)
	s.header(4, st, "Metric", "Value")

	r := 5
	money := func(label string, v float64) {
		s.row(r, label+suffix, opts.Scale.Apply(v))
		s.style(2, r, 2, r, st.money)
		r++
	}
	percent := func(label string, v *float64) {
		if v == nil {
			return
		}
		s.row(r, label, *v)
		s.style(2, r, 2, r, st.percent)
		r++
	}
	money("Total Planned", sum.TotalPlanned)
	money("Total FX-Adjusted Actual", sum.TotalFXAdjustedActual)
	money("Total Variance", sum.TotalVariance)
	pctOfPlan := sum.VariancePctOfPlan
	percent("Variance % of Plan", &pctOfPlan)
	percent("FX Contribution", sum.FXContributionPct)
	percent("Avg Margin", sum.AvgMargin)
	percent("Avg Growth", sum.AvgGrowth)
	percent("Avg Utilization", sum.AvgUtilization)
	if res.Accuracy != nil {
		s.row(r, "Accuracy Score", *res.Accuracy)
		r++
	}
	s.row(r, "Rows", res.Table.Len())
	s.widths(32, 20)
	return s.err
}

// topDimension picks the first dimension present in t.
func topDimension(t *model.Table, priority []string) string {
	for _, d := range priority {
		if t.Has(d) {
			return d
		}
	}
	return model.ColCostCenter
}

func writeTopVariances(f *excelize.File, res *pipeline.Result, opts Options, st styles) error {
	s := newSheet(f, SheetTopVariances)
	dim := topDimension(res.Table, opts.Dimensions)
	agg := pipeline.Aggregate(res.Table, pipeline.GroupSpec{
		Keys:  []string{dim},
		Sum:   []string{model.ColPlanned, model.ColFXAdjustedActual, model.ColVariance},
		Order: pipeline.OrderByAbs(model.ColVariance),
	})

	suffix := opts.Scale.Suffix()
	s.header(1, st, dim, model.ColPlanned+suffix, model.ColFXAdjustedActual+suffix, model.ColVariance+suffix)
	n := agg.Len()
	if n > opts.TopN {
		n = opts.TopN
	}
	for i := 0; i < n; i++ {
		p, _ := agg.Float(i, model.ColPlanned)
		a, _ := agg.Float(i, model.ColFXAdjustedActual)
		v, _ := agg.Float(i, model.ColVariance)
		s.row(i+2, agg.Label(i, dim), opts.Scale.Apply(p), opts.Scale.Apply(a), opts.Scale.Apply(v))
	}
	if n > 0 {
		s.style(2, 2, 4, n+1, st.money)
	}
	s.widths(24, 18, 22, 18)
	return s.err
}

func writeData(f *excelize.File, res *pipeline.Result, opts Options, st styles) error {
	s := newSheet(f, SheetData)
	t := res.Table

	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c
		if cli.IsMoneyColumn(c) {
			headers[i] += opts.Scale.Suffix()
		}
	}
	s.header(1, st, headers...)

	for i, row := range t.Rows {
		vals := make([]any, len(t.Columns))
		for j, col := range t.Columns {
			vals[j] = cellValue(row[j], col, opts.Scale)
		}
		s.row(i+2, vals...)
	}
	widths := make([]float64, len(t.Columns))
	for j, col := range t.Columns {
		widths[j] = 18
		if t.Len() == 0 {
			continue
		}
		switch {
		case cli.IsMoneyColumn(col):
			s.style(j+1, 2, j+1, t.Len()+1, st.money)
		case cli.IsPercentColumn(col):
			s.style(j+1, 2, j+1, t.Len()+1, st.percent)
		}
	}
	s.widths(widths...)
	return s.err
}

// cellValue converts a table cell to something excelize writes natively.
// Missing cells are left empty.
func cellValue(v model.Value, column string, scale cli.Scale) any {
	switch v.Kind {
	case model.KindNumber:
		if cli.IsMoneyColumn(column) {
			return scale.Apply(v.Num)
		}
		return v.Num
	case model.KindText:
		return v.Str
	case model.KindTime:
		return v.Time
	default:
		return nil
	}
}

func writeScenarios(f *excelize.File, res *pipeline.Result, opts Options, st styles) error {
	if res.Scenarios == nil {
		return nil
	}
	s := newSheet(f, SheetScenarios)
	sc := res.Scenarios
	suffix := opts.Scale.Suffix()

	s.header(1, st, "Scenario", "Axis", "Shock",
		"Total Planned"+suffix, "Total Actual (FX)"+suffix, "Total Variance"+suffix, "Delta vs Base"+suffix)
	for i, x := range sc.Scenarios {
		s.row(i+2, x.Name, x.Axis, x.Pct,
			opts.Scale.Apply(x.TotalPlanned),
			opts.Scale.Apply(x.TotalActualFX),
			opts.Scale.Apply(x.TotalVariance),
			opts.Scale.Apply(x.DeltaVsBase))
	}
	if n := len(sc.Scenarios); n > 0 {
		s.style(3, 2, 3, n+1, st.percent)
		s.style(4, 2, 7, n+1, st.money)
	}

	base := len(sc.Scenarios) + 3
	s.header(base, st, "Base Case", "Value")
	s.row(base+1, "Base Planned"+suffix, opts.Scale.Apply(sc.Summary.BasePlanned))
	s.row(base+2, "Base Actual (FX)"+suffix, opts.Scale.Apply(sc.Summary.BaseActualFX))
	s.row(base+3, "Base Variance"+suffix, opts.Scale.Apply(sc.Summary.BaseVariance))
	s.style(2, base+1, 2, base+3, st.money)
	if len(sc.Skipped) > 0 {
		s.row(base+5, "Skipped axes", strings.Join(sc.Skipped, ", "))
	}
	s.widths(22, 10, 10, 20, 20, 20, 20)
	return s.err
}

func writeAlerts(f *excelize.File, res *pipeline.Result, opts Options, st styles) error {
	if res.Alerts == nil {
		return nil
	}
	s := newSheet(f, SheetAlerts)
	al := res.Alerts
	if al.Note != "" && len(al.Series) == 0 {
		s.row(1, al.Note)
		s.style(1, 1, 1, 1, st.wrap)
		s.widths(48)
		return s.err
	}

	suffix := opts.Scale.Suffix()
	s.header(1, st, "Month", model.ColPlanned+suffix, model.ColFXAdjustedActual+suffix, "Ratio", "Rolling 3M")
	for i, p := range al.Series {
		var rolling any
		if p.Rolling3M != nil {
			rolling = *p.Rolling3M
		}
		s.row(i+2, p.Month.String(), opts.Scale.Apply(p.Planned), opts.Scale.Apply(p.FXAdjustedActual), p.Ratio, rolling)
	}
	if n := len(al.Series); n > 0 {
		s.style(2, 2, 3, n+1, st.money)
		s.style(4, 2, 5, n+1, st.percent)
	}

	start := len(al.Series) + 3
	s.row(start, fmt.Sprintf("Crossings (Rolling 3M > %.0f%%)", al.Threshold*100))
	s.style(1, start, 1, start, st.header)
	if len(al.Crossings) == 0 {
		s.row(start+1, "None")
	} else {
		s.header(start+1, st, "Month", "Ratio", "Note")
		for i, c := range al.Crossings {
			s.row(start+2+i, c.Month.String(), c.Ratio, c.Note)
		}
		s.style(2, start+2, 2, start+1+len(al.Crossings), st.percent)
	}
	s.widths(18, 18, 22, 12, 12)
	return s.err
}

func writeNextActions(f *excelize.File, res *pipeline.Result, _ Options, st styles) error {
	if res.Suggestion == nil {
		return nil
	}
	s := newSheet(f, SheetNextActions)
	s.header(1, st, "#", "Title", "Why", "How To", "Expected Outcome", "Tags")
	for i, a := range res.Suggestion.NextActions {
		s.row(i+2, i+1, a.Title, a.Rationale, bullets(a.HowTo), a.ExpectedOutcome, strings.Join(a.Tags, ", "))
	}
	if n := len(res.Suggestion.NextActions); n > 0 {
		s.style(2, 2, 6, n+1, st.wrap)
	}

	r := len(res.Suggestion.NextActions) + 3
	if len(res.Suggestion.Drilldowns) > 0 {
		s.header(r, st, "Drilldown", "Top groups")
		for i, d := range res.Suggestion.Drilldowns {
			s.row(r+1+i, d.Dimension, strings.Join(d.Top, ", "))
		}
	}
	s.widths(5, 40, 50, 60, 40, 20)
	return s.err
}

func writePlaybooks(f *excelize.File, res *pipeline.Result, _ Options, st styles) error {
	if res.Playbooks == nil {
		return nil
	}
	s := newSheet(f, SheetPlaybooks)
	s.header(1, st, "ID", "Title", "Rationale", "Steps", "Expected Outcome")
	for i, pb := range res.Playbooks {
		s.row(i+2, pb.ID, pb.Title, pb.Rationale, bullets(pb.Steps), pb.ExpectedOutcome)
	}
	if n := len(res.Playbooks); n > 0 {
		s.style(1, 2, 5, n+1, st.wrap)
	}
	s.widths(14, 30, 40, 60, 30)
	return s.err
}

func writeReallocation(f *excelize.File, res *pipeline.Result, opts Options, st styles) error {
	if res.Realloc == nil {
		return nil
	}
	s := newSheet(f, SheetReallocation)
	s.header(1, st, "Row", model.ColCostCenter, model.ColVariance+opts.Scale.Suffix(), "Status", "Hint")
	for i, r := range res.Realloc {
		s.row(i+2, r.Row+1, r.Label, opts.Scale.Apply(r.Variance), r.Status, r.Hint)
	}
	if n := len(res.Realloc); n > 0 {
		s.style(3, 2, 3, n+1, st.money)
	}
	s.widths(8, 20, 18, 12, 40)
	return s.err
}

func bullets(items []string) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = "- " + it
	}
	return strings.Join(lines, "\n")
}
