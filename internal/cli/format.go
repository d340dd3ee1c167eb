// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/theirongolddev/budgetlens/internal/model"
)

// Scale divides money amounts for display.
type Scale string

// Supported display scales.
const (
	ScaleRaw Scale = "raw"
	ScaleK   Scale = "k"
	ScaleM   Scale = "m"
)

// ParseScale validates a scale name. Empty means raw.
func ParseScale(s string) (Scale, error) {
	switch Scale(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScaleRaw:
		return ScaleRaw, nil
	case ScaleK:
		return ScaleK, nil
	case ScaleM:
		return ScaleM, nil
	}
	return ScaleRaw, fmt.Errorf("unknown scale %q (want raw, k or m)", s)
}

// Apply divides v by the scale factor.
func (s Scale) Apply(v float64) float64 {
	switch s {
	case ScaleK:
		return v / 1_000
	case ScaleM:
		return v / 1_000_000
	default:
		return v
	}
}

// Suffix returns the unit label appended to scaled headers, e.g. " (K)".
func (s Scale) Suffix() string {
	switch s {
	case ScaleK:
		return " (K)"
	case ScaleM:
		return " (M)"
	default:
		return ""
	}
}

// FormatCompact formats an amount with K/M/B suffixes.
// e.g., 12345 -> "12.35K", 2500000 -> "2.50M"
func FormatCompact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", v/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.2fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.2fK", v/1_000)
	default:
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
}

// FormatMoney formats a scaled amount with thousands separators.
// e.g., 12345.6 -> "12,345.60"
func FormatMoney(v float64, scale Scale, decimals int) string {
	v = scale.Apply(v)
	if decimals < 0 {
		decimals = 0
	}
	s := strconv.FormatFloat(math.Abs(v), 'f', decimals, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return strconv.FormatFloat(v, 'f', decimals, 64)
	}
	out := FormatNumber(n)
	if frac != "" {
		out += "." + frac
	}
	if v < 0 && strings.Trim(s, "0.") != "" {
		out = "-" + out
	}
	return out
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
// e.g., 0.1234 -> "12.34%"
func FormatPercent(f float64, decimals int) string {
	return FormatMoney(f*100, ScaleRaw, decimals) + "%"
}

// FormatStyle renders v in one of the named display styles: number,
// percent, k or m. Unknown styles fall back to number.
func FormatStyle(v float64, style string) string {
	switch style {
	case "percent":
		return FormatPercent(v, 2)
	case "k":
		return FormatMoney(v, ScaleK, 2) + "K"
	case "m":
		return FormatMoney(v, ScaleM, 2) + "M"
	default:
		return FormatMoney(v, ScaleRaw, 2)
	}
}

// FormatSigned formats an amount with an explicit sign.
func FormatSigned(v float64, scale Scale) string {
	if v >= 0 {
		return "+" + FormatMoney(v, scale, 2)
	}
	return FormatMoney(v, scale, 2)
}

// FormatCell renders a table cell for display. Numbers in money columns
// are scaled and separated; percent columns render as percentages.
func FormatCell(v model.Value, column string, scale Scale) string {
	f, ok := v.Float()
	if v.Kind != model.KindNumber || !ok {
		if v.Kind == model.KindMissing {
			return "n/a"
		}
		return v.String()
	}
	switch {
	case IsMoneyColumn(column):
		return FormatMoney(f, scale, 2)
	case IsPercentColumn(column):
		return FormatPercent(f, 2)
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

// MoneyColumns are formatted as amounts.
var MoneyColumns = []string{
	model.ColPlanned,
	model.ColActual,
	model.ColFXAdjustedActual,
	model.ColVariance,
}

// PercentColumns are formatted as percentages.
var PercentColumns = []string{model.ColMargin, model.ColGrowth, model.ColUtilization}

// IsMoneyColumn reports whether column holds an amount.
func IsMoneyColumn(column string) bool {
	for _, c := range MoneyColumns {
		if c == column {
			return true
		}
	}
	return false
}

// IsPercentColumn reports whether column holds a 0-1 fraction.
func IsPercentColumn(column string) bool {
	for _, c := range PercentColumns {
		if c == column {
			return true
		}
	}
	return false
}

// FormatDuration formats seconds into a human-readable duration.
// e.g., 3725 -> "1h 2m", 125 -> "2m", 45 -> "45s"
func FormatDuration(secs int64) string {
	if secs <= 0 {
		return "0s"
	}

	hours := secs / 3600
	mins := (secs % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%ds", secs)
}
