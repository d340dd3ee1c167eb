package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/budgetlens/internal/cli"
	"github.com/theirongolddev/budgetlens/internal/model"
	"github.com/theirongolddev/budgetlens/internal/pipeline"
	"github.com/theirongolddev/budgetlens/internal/tui/components"
	"github.com/theirongolddev/budgetlens/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// groupRow is one aggregated line of the Groups tab.
type groupRow struct {
	Label    string
	Planned  float64
	Actual   float64
	Variance float64
}

// groupRows aggregates the calculated table by dim, largest absolute
// variance first.
func groupRows(t *model.Table, dim string) []groupRow {
	agg := pipeline.Aggregate(t, pipeline.GroupSpec{
		Keys:  []string{dim},
		Sum:   []string{model.ColPlanned, model.ColFXAdjustedActual, model.ColVariance},
		Order: pipeline.OrderByAbs(model.ColVariance),
	})
	rows := make([]groupRow, agg.Len())
	for i := range rows {
		rows[i].Label = agg.Label(i, dim)
		if rows[i].Label == "" {
			rows[i].Label = "(blank)"
		}
		rows[i].Planned, _ = agg.Float(i, model.ColPlanned)
		rows[i].Actual, _ = agg.Float(i, model.ColFXAdjustedActual)
		rows[i].Variance, _ = agg.Float(i, model.ColVariance)
	}
	return rows
}

func (a App) renderGroupsTab(cw int) string {
	t := theme.Active
	if len(a.dims) == 0 {
		return components.ContentCard("Groups", "No grouping columns in the input.", cw)
	}
	dim := a.dims[a.dimIdx]
	rows := groupRows(a.res.Table, dim)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	numStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	innerW := components.CardInnerWidth(cw)
	const numW = 16
	const pctW = 9
	labelW := max(12, min(32, innerW-3*numW-pctW-24))
	barW := max(4, innerW-labelW-3*numW-pctW-5)

	peak := 0.0
	for _, r := range rows {
		peak = math.Max(peak, math.Abs(r.Variance))
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %*s %*s %*s %*s",
		labelW, truncStr(dim, labelW),
		numW, "Planned"+a.scale.Suffix(),
		numW, "FX Actual"+a.scale.Suffix(),
		numW, "Variance"+a.scale.Suffix(),
		pctW, "% Plan")))
	b.WriteString("\n")

	for i, r := range rows {
		varStyle := lipgloss.NewStyle().Foreground(t.Variance(r.Variance)).Background(t.Surface)
		pct := "n/a"
		if r.Planned != 0 {
			pct = signedPct(r.Variance / r.Planned)
		}
		bar := ""
		if peak > 0 {
			bar = strings.Repeat("█", int(math.Round(math.Abs(r.Variance)/peak*float64(barW))))
		}

		b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncStr(r.Label, labelW))))
		b.WriteString(numStyle.Render(fmt.Sprintf(" %*s %*s", numW, cli.FormatMoney(r.Planned, a.scale, 2), numW, cli.FormatMoney(r.Actual, a.scale, 2))))
		b.WriteString(varStyle.Render(fmt.Sprintf(" %*s %*s", numW, cli.FormatSigned(r.Variance, a.scale), pctW, pct)))
		b.WriteString(space.Render(" "))
		b.WriteString(varStyle.Render(bar))
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}

	title := fmt.Sprintf("Variance by %s (%d groups)  [ ] to change", dim, len(rows))
	return components.ContentCard(title, b.String(), cw)
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
