package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetlens/internal/tui/components"
	"github.com/theirongolddev/budgetlens/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderActionsTab(cw int) string {
	res := a.res
	if res.Suggestion == nil && res.Playbooks == nil {
		return tierLocked("Actions", a.opts.Tier, cw)
	}
	t := theme.Active
	inner := components.CardInnerWidth(cw)

	titleStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	textStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Width(inner)
	stepStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(inner)
	tagStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	outcomeStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface).Width(inner)

	var b strings.Builder

	if sg := res.Suggestion; sg != nil {
		var body strings.Builder
		for i, na := range sg.NextActions {
			if i > 0 {
				body.WriteString("\n\n")
			}
			body.WriteString(titleStyle.Render(fmt.Sprintf("%d. %s", i+1, na.Title)))
			if len(na.Tags) > 0 {
				body.WriteString(tagStyle.Render("  #" + strings.Join(na.Tags, " #")))
			}
			body.WriteString("\n" + textStyle.Render(na.Rationale))
			for _, step := range na.HowTo {
				body.WriteString("\n" + stepStyle.Render("  • "+step))
			}
			if na.ExpectedOutcome != "" {
				body.WriteString("\n" + outcomeStyle.Render("  → "+na.ExpectedOutcome))
			}
		}
		b.WriteString(components.ContentCard(fmt.Sprintf("Next Actions (%d)", len(sg.NextActions)), body.String(), cw))
		b.WriteString("\n")

		if len(sg.Drilldowns) > 0 {
			var dd strings.Builder
			for i, d := range sg.Drilldowns {
				dd.WriteString(tagStyle.Render(fmt.Sprintf("%-14s", d.Dimension)))
				dd.WriteString(textStyle.UnsetWidth().Render(strings.Join(d.Top, ", ")))
				if i < len(sg.Drilldowns)-1 {
					dd.WriteString("\n")
				}
			}
			b.WriteString(components.ContentCard("Drill Down First", dd.String(), cw))
			b.WriteString("\n")
		}
	}

	if res.Playbooks != nil {
		var body strings.Builder
		if len(res.Playbooks) == 0 {
			body.WriteString(textStyle.Render("No playbook conditions matched."))
		}
		for i, pb := range res.Playbooks {
			if i > 0 {
				body.WriteString("\n\n")
			}
			body.WriteString(titleStyle.Render(pb.Title))
			body.WriteString(tagStyle.Render("  " + pb.ID))
			body.WriteString("\n" + textStyle.Render(pb.Rationale))
			for j, step := range pb.Steps {
				body.WriteString("\n" + stepStyle.Render(fmt.Sprintf("  %d. %s", j+1, step)))
			}
		}
		b.WriteString(components.ContentCard(fmt.Sprintf("Playbooks (%d)", len(res.Playbooks)), body.String(), cw))
	}

	return b.String()
}
