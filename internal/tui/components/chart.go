package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/budgetlens/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a unicode sparkline scaled between the series min and max.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo

	style := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := len(sparkBlocks) / 2
		if span > 0 {
			idx = int((v - lo) / span * float64(len(sparkBlocks)-1))
		}
		idx = max(0, min(idx, len(sparkBlocks)-1))
		buf.WriteRune(sparkBlocks[idx])
	}

	return style.Render(buf.String())
}

// DivergingBars renders one line per label with a bar growing left for
// negative values and right for positive ones around a center axis.
// Overspend (positive) is red, underspend green.
func DivergingBars(labels []string, values []float64, width int, format func(float64) string) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	labelW := 0
	for _, l := range labels {
		labelW = max(labelW, lipgloss.Width(l))
	}
	labelW = min(labelW, 24)

	valueW := 0
	vals := make([]string, len(values))
	peak := 0.0
	for i, v := range values {
		vals[i] = format(v)
		valueW = max(valueW, len(vals[i]))
		peak = math.Max(peak, math.Abs(v))
	}
	if peak == 0 {
		peak = 1
	}

	half := (width - labelW - valueW - 4) / 2
	if half < 4 {
		half = 4
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = truncate(labels[i], labelW)
		}
		n := int(math.Round(math.Abs(v) / peak * float64(half)))
		if n == 0 && v != 0 {
			n = 1
		}
		bar := lipgloss.NewStyle().Foreground(t.Variance(v)).Background(t.Surface)

		b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s ", labelW, label)))
		if v < 0 {
			b.WriteString(space.Render(strings.Repeat(" ", half-n)))
			b.WriteString(bar.Render(strings.Repeat("█", n)))
		} else {
			b.WriteString(space.Render(strings.Repeat(" ", half)))
		}
		b.WriteString(axisStyle.Render("│"))
		if v > 0 {
			b.WriteString(bar.Render(strings.Repeat("█", n)))
			b.WriteString(space.Render(strings.Repeat(" ", half-n)))
		} else {
			b.WriteString(space.Render(strings.Repeat(" ", half)))
		}
		b.WriteString(bar.Render(fmt.Sprintf(" %*s", valueW, vals[i])))
		if i < len(values)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RatioChart renders a vertical bar chart of actual/plan ratios with a
// dashed threshold row. Each bar takes its color from theme.Ratio.
func RatioChart(values []float64, labels []string, threshold float64, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active
	if width < 15 || height < 3 {
		return Sparkline(values, t.Accent)
	}

	ceiling := 1 + threshold
	for _, v := range values {
		ceiling = math.Max(ceiling, v)
	}
	step := chartTickStep(ceiling)
	ceiling = math.Ceil(ceiling/step) * step

	yLabelW := max(len(formatChartLabel(ceiling))+1, 5)
	chartW := max(width-yLabelW-1, 5)

	n := len(values)
	barW := 1
	if n > 0 {
		barW = max(1, min((chartW-(n-1))/n, 6))
	}
	axisLen := n*barW + max(0, n-1)

	limit := 1 + threshold
	limitRow := int(math.Round(limit / ceiling * float64(height)))

	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	limitStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := height; row >= 1; row-- {
		rowTop := ceiling * float64(row) / float64(height)
		rowBottom := ceiling * float64(row-1) / float64(height)

		label := ""
		if row == height {
			label = formatChartLabel(ceiling)
		} else if row == limitRow {
			label = formatChartLabel(limit)
		}
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, label)))
		b.WriteString(axisStyle.Render("│"))

		for i, v := range values {
			if i > 0 {
				b.WriteString(space.Render(" "))
			}
			bar := lipgloss.NewStyle().Foreground(t.Ratio(v, threshold)).Background(t.Surface)
			switch {
			case v >= rowTop:
				b.WriteString(bar.Render(strings.Repeat("█", barW)))
			case v > rowBottom:
				idx := int((v - rowBottom) / (rowTop - rowBottom) * float64(len(sparkBlocks)))
				idx = max(0, min(idx, len(sparkBlocks)-1))
				b.WriteString(bar.Render(strings.Repeat(string(sparkBlocks[idx]), barW)))
			case row == limitRow:
				b.WriteString(limitStyle.Render(strings.Repeat("╌", barW)))
			default:
				b.WriteString(space.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, "0")))
	b.WriteString(axisStyle.Render("└" + strings.Repeat("─", axisLen)))

	if len(labels) == n && n > 0 {
		buf := []byte(strings.Repeat(" ", axisLen))
		lastEnd := -1
		for i := 0; i < n; i++ {
			pos := i * (barW + 1)
			lbl := labels[i]
			if pos <= lastEnd || pos+len(lbl) > axisLen {
				continue
			}
			copy(buf[pos:], lbl)
			lastEnd = pos + len(lbl)
		}
		b.WriteString("\n")
		b.WriteString(space.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axisStyle.Render(strings.TrimRight(string(buf), " ")))
	}

	return b.String()
}

// chartTickStep computes a nice tick interval targeting ~5 ticks.
func chartTickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	exp := math.Floor(math.Log10(rough))
	base := math.Pow(10, exp)
	frac := rough / base

	switch {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

// formatChartLabel renders ratios as percentages.
func formatChartLabel(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
