package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetlens/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the bottom bar reports about the loaded data.
type StatusInfo struct {
	Tier      string
	Files     int
	Rows      int
	CacheHits int
	LoadTime  string
	Reloading bool
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)

	left := " [?]help  [r]eload  [q]uit"

	var right []string
	if info.Reloading {
		right = append(right, "reloading...")
	}
	if info.Tier != "" {
		right = append(right, info.Tier)
	}
	right = append(right, fmt.Sprintf("%d files", info.Files), fmt.Sprintf("%d rows", info.Rows))
	if info.CacheHits > 0 {
		right = append(right, fmt.Sprintf("%d cached", info.CacheHits))
	}
	if info.LoadTime != "" {
		right = append(right, info.LoadTime)
	}
	r := strings.Join(right, " · ") + " "

	padding := width - lipgloss.Width(left) - lipgloss.Width(r)
	if padding < 0 {
		padding = 0
	}

	return style.Render(left + strings.Repeat(" ", padding) + r)
}
