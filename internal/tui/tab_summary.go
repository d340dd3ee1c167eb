package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetlens/internal/cli"
	"github.com/theirongolddev/budgetlens/internal/model"
	"github.com/theirongolddev/budgetlens/internal/pipeline"
	"github.com/theirongolddev/budgetlens/internal/tui/components"
	"github.com/theirongolddev/budgetlens/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const summaryTopN = 8

func (a App) renderSummaryTab(cw int) string {
	t := theme.Active
	res := a.res
	sum := pipeline.SummaryOf(res.Table)
	if res.Suggestion != nil {
		sum = res.Suggestion.Summary
	}
	var b strings.Builder

	// Row 1: headline totals
	varTone := components.ToneGood
	switch {
	case sum.TotalVariance > 0 && sum.VariancePctOfPlan >= a.opts.Thresholds.VarianceWarnPctOfPlan:
		varTone = components.ToneBad
	case sum.TotalVariance > 0:
		varTone = components.ToneWarn
	}
	cards := []components.Metric{
		{Label: "Planned" + a.scale.Suffix(), Value: cli.FormatMoney(sum.TotalPlanned, a.scale, 2), Delta: fmt.Sprintf("%d rows", res.Table.Len())},
		{Label: "FX-Adjusted Actual" + a.scale.Suffix(), Value: cli.FormatMoney(sum.TotalFXAdjustedActual, a.scale, 2)},
		{Label: "Variance" + a.scale.Suffix(), Value: cli.FormatSigned(sum.TotalVariance, a.scale), Delta: signedPct(sum.VariancePctOfPlan) + " of plan", Tone: varTone},
	}
	if res.Accuracy != nil {
		cards = append(cards, components.Metric{Label: "Accuracy", Value: fmt.Sprintf("%.2f", *res.Accuracy), Delta: "out of 100"})
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	// Row 2: drivers and averages
	halves := components.LayoutRow(cw, 2)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var drivers strings.Builder
	writeStat := func(label, value string) {
		fmt.Fprintf(&drivers, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-16s", label)), valueStyle.Render(value))
	}
	writeStat("FX contribution", optPct(sum.FXContributionPct))
	writeStat("Avg margin", optPct(sum.AvgMargin))
	writeStat("Avg growth", optPct(sum.AvgGrowth))
	writeStat("Avg utilization", optPct(sum.AvgUtilization))
	left := components.ContentCard("Drivers", strings.TrimRight(drivers.String(), "\n"), halves[0])

	right := components.ContentCard("Reallocation", a.reallocationBody(), halves[1])
	if a.isCompactLayout() {
		b.WriteString(left)
		b.WriteString("\n")
		b.WriteString(right)
	} else {
		b.WriteString(components.CardRow([]string{left, right}))
	}
	b.WriteString("\n")

	// Row 3: largest variances in the first present drilldown dimension
	dim := pipeline.DrilldownFallback
	for _, d := range a.opts.Columns.Drilldown {
		if res.Table.Supplied(d) {
			dim = d
			break
		}
	}
	agg := pipeline.Aggregate(res.Table, pipeline.GroupSpec{
		Keys:  []string{dim},
		Sum:   []string{model.ColVariance},
		Order: pipeline.OrderByAbs(model.ColVariance),
	})
	n := min(agg.Len(), summaryTopN)
	labels := make([]string, n)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		labels[i] = agg.Label(i, dim)
		values[i], _ = agg.Float(i, model.ColVariance)
	}
	if n > 0 {
		format := func(v float64) string { return cli.FormatSigned(v, a.scale) }
		b.WriteString(components.ContentCard(
			fmt.Sprintf("Top Variances by %s", dim),
			components.DivergingBars(labels, values, components.CardInnerWidth(cw), format),
			cw,
		))
	}

	return b.String()
}

func (a App) reallocationBody() string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if !a.opts.Features.Reallocation {
		return muted.Render("Available on the premium tier")
	}

	counts := map[string]int{}
	for _, r := range a.res.Realloc {
		counts[r.Status]++
	}
	rows := []struct {
		status string
		color  lipgloss.Color
	}{
		{pipeline.StatusOverspend, t.Red},
		{pipeline.StatusSurplus, t.Green},
		{pipeline.StatusOnTrack, t.TextMuted},
	}
	var b strings.Builder
	for i, r := range rows {
		style := lipgloss.NewStyle().Foreground(r.color).Background(t.Surface).Bold(true)
		fmt.Fprintf(&b, "%s %s", muted.Render(fmt.Sprintf("%-16s", r.status)), style.Render(cli.FormatNumber(int64(counts[r.status]))))
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n" + muted.Render(fmt.Sprintf("band ±%s", cli.FormatMoney(a.opts.Thresholds.ReallocationBand, cli.ScaleRaw, 0))))
	return b.String()
}

func optPct(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return cli.FormatPercent(*p, 1)
}

func signedPct(f float64) string {
	if f > 0 {
		return "+" + cli.FormatPercent(f, 1)
	}
	return cli.FormatPercent(f, 1)
}
