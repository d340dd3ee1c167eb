package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetlens/internal/cli"
	"github.com/theirongolddev/budgetlens/internal/tui/components"
	"github.com/theirongolddev/budgetlens/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderScenariosTab(cw int) string {
	sc := a.res.Scenarios
	if sc == nil {
		return tierLocked("Scenarios", a.opts.Tier, cw)
	}
	t := theme.Active

	base := sc.Summary
	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Base Planned" + a.scale.Suffix(), Value: cli.FormatMoney(base.BasePlanned, a.scale, 2)},
		{Label: "Base FX Actual" + a.scale.Suffix(), Value: cli.FormatMoney(base.BaseActualFX, a.scale, 2)},
		{Label: "Base Variance" + a.scale.Suffix(), Value: cli.FormatSigned(base.BaseVariance, a.scale)},
	}, cw))
	b.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	numStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	const nameW = 18
	const numW = 16
	var body strings.Builder
	body.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %*s %*s %*s %*s",
		nameW, "Scenario",
		numW, "Planned",
		numW, "FX Actual",
		numW, "Variance",
		numW, "Δ vs Base")))
	for _, s := range sc.Scenarios {
		deltaStyle := lipgloss.NewStyle().Foreground(t.Variance(s.DeltaVsBase)).Background(t.Surface).Bold(true)
		body.WriteString("\n")
		body.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(s.Name, nameW))))
		body.WriteString(numStyle.Render(fmt.Sprintf(" %*s %*s %*s",
			numW, cli.FormatMoney(s.TotalPlanned, a.scale, 2),
			numW, cli.FormatMoney(s.TotalActualFX, a.scale, 2),
			numW, cli.FormatSigned(s.TotalVariance, a.scale))))
		body.WriteString(deltaStyle.Render(fmt.Sprintf(" %*s", numW, cli.FormatSigned(s.DeltaVsBase, a.scale))))
	}
	if len(sc.Scenarios) == 0 {
		body.WriteString("\n" + numStyle.Render("No scenario drivers present in the input."))
	}
	for _, s := range sc.Skipped {
		body.WriteString("\n" + numStyle.Render("skipped: "+s))
	}

	b.WriteString(components.ContentCard("What-if Scenarios", body.String(), cw))
	return b.String()
}

// tierLocked renders the placeholder for a tab whose stage is off.
func tierLocked(name, tier string, cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	return components.ContentCard(name, muted.Render(fmt.Sprintf("Not available on the %s tier. Press s to change tier.", tier)), cw)
}
