package components

import (
	"strings"

	"github.com/theirongolddev/budgetlens/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name string
	Key  rune
}

// Tabs defines all available tabs, in display order.
var Tabs = []Tab{
	{Name: "Summary", Key: '1'},
	{Name: "Groups", Key: '2'},
	{Name: "Scenarios", Key: '3'},
	{Name: "Alerts", Key: '4'},
	{Name: "Actions", Key: '5'},
}

const tabSeparator = " "

// TabVisualWidth returns the rendered width of a tab. Inactive tabs carry
// a "[n]" shortcut hint.
func TabVisualWidth(tab Tab, active bool) int {
	w := lipgloss.Width(tab.Name) + 2
	if !active {
		w += 3
	}
	return w
}

// RenderTabBar renders the tab bar with the given active index.
// Tabs whose feature is disabled are drawn dimmed.
func RenderTabBar(activeIdx int, enabled []bool, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.SurfaceHover).
		Bold(true).
		Padding(0, 1)

	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Padding(0, 1)

	disabledStyle := inactiveStyle.Foreground(t.TextDim)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	sepStyle := lipgloss.NewStyle().Background(t.Background)

	parts := make([]string, 0, len(Tabs))
	for i, tab := range Tabs {
		switch {
		case i == activeIdx:
			parts = append(parts, activeStyle.Render(tab.Name))
		case i < len(enabled) && !enabled[i]:
			parts = append(parts, disabledStyle.Render(tab.Name)+disabledStyle.UnsetPadding().Render("["+string(tab.Key)+"]"))
		default:
			hint := keyStyle.Render("[" + string(tab.Key) + "]")
			parts = append(parts, inactiveStyle.Render(tab.Name)+hint)
		}
	}

	row := strings.Join(parts, sepStyle.Render(tabSeparator))
	return lipgloss.NewStyle().Background(t.Background).Width(width).Render(row)
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
