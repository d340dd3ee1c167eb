package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetlens/internal/cli"
	"github.com/theirongolddev/budgetlens/internal/model"
	"github.com/theirongolddev/budgetlens/internal/tui/components"
	"github.com/theirongolddev/budgetlens/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// rollingSeries returns the rolling ratio per month, falling back to the
// single-month ratio before the window fills.
func rollingSeries(series []model.MonthPoint) ([]float64, []string) {
	vals := make([]float64, len(series))
	labels := make([]string, len(series))
	for i, p := range series {
		vals[i] = p.Ratio
		if p.Rolling3M != nil {
			vals[i] = *p.Rolling3M
		}
		labels[i] = p.Month.Time().Format("Jan")
	}
	return vals, labels
}

func (a App) renderAlertsTab(cw int) string {
	al := a.res.Alerts
	if al == nil {
		return tierLocked("Alerts", a.opts.Tier, cw)
	}
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if len(al.Series) == 0 {
		note := al.Note
		if note == "" {
			note = "No months with planned spend."
		}
		return components.ContentCard("Alerts", muted.Render(note), cw)
	}

	var b strings.Builder
	vals, labels := rollingSeries(al.Series)
	b.WriteString(components.ContentCard(
		fmt.Sprintf("Rolling 3M Actual / Plan (threshold %s)  + - to adjust", cli.FormatPercent(1+al.Threshold, 0)),
		components.RatioChart(vals, labels, al.Threshold, components.CardInnerWidth(cw), 8),
		cw,
	))
	b.WriteString("\n")

	halves := components.LayoutRow(cw, 2)

	var gauges strings.Builder
	barW := max(10, components.CardInnerWidth(halves[0])-8-7)
	for i, p := range al.Series {
		gauges.WriteString(components.Gauge(p.Month.String(), vals[i], al.Threshold, 8, barW))
		if i < len(al.Series)-1 {
			gauges.WriteString("\n")
		}
	}
	left := components.ContentCard("Monthly", gauges.String(), halves[0])

	var cross strings.Builder
	if len(al.Crossings) == 0 {
		cross.WriteString(lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface).Render("No threshold crossings."))
	}
	red := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
	for i, c := range al.Crossings {
		cross.WriteString(red.Render(c.Month.String()))
		cross.WriteString(muted.Render(" " + c.Note))
		if i < len(al.Crossings)-1 {
			cross.WriteString("\n")
		}
	}
	right := components.ContentCard(fmt.Sprintf("Crossings (%d)", len(al.Crossings)), cross.String(), halves[1])

	if a.isCompactLayout() {
		b.WriteString(left)
		b.WriteString("\n")
		b.WriteString(right)
	} else {
		b.WriteString(components.CardRow([]string{left, right}))
	}
	return b.String()
}
