package cli

import (
	"testing"

	"github.com/theirongolddev/budgetlens/internal/model"
)

func TestFormatStyle(t *testing.T) {
	tests := []struct {
		v     float64
		style string
		want  string
	}{
		{12345.6, "number", "12,345.60"},
		{0.1234, "percent", "12.34%"},
		{12345, "k", "12.35K"},
		{2500000, "m", "2.50M"},
		{-1234.5, "number", "-1,234.50"},
		{7, "bogus", "7.00"},
	}
	for _, tt := range tests {
		if got := FormatStyle(tt.v, tt.style); got != tt.want {
			t.Errorf("FormatStyle(%v, %q) = %q, want %q", tt.v, tt.style, got, tt.want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		v     float64
		scale Scale
		want  string
	}{
		{0, ScaleRaw, "0.00"},
		{999.999, ScaleRaw, "1,000.00"},
		{1234567.891, ScaleRaw, "1,234,567.89"},
		{1234567.891, ScaleK, "1,234.57"},
		{1234567.891, ScaleM, "1.23"},
		{-0.001, ScaleRaw, "0.00"},
		{-2500, ScaleK, "-2.50"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.v, tt.scale, 2); got != tt.want {
			t.Errorf("FormatMoney(%v, %s) = %q, want %q", tt.v, tt.scale, got, tt.want)
		}
	}
}

func TestParseScale(t *testing.T) {
	for in, want := range map[string]Scale{"": ScaleRaw, "RAW": ScaleRaw, "k": ScaleK, " M ": ScaleM} {
		got, err := ParseScale(in)
		if err != nil || got != want {
			t.Errorf("ParseScale(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseScale("b"); err == nil {
		t.Error("expected error for unknown scale")
	}
}

func TestFormatCompact(t *testing.T) {
	tests := map[float64]string{
		12:            "12.00",
		12345:         "12.35K",
		-2_500_000:    "-2.50M",
		3_100_000_000: "3.10B",
	}
	for v, want := range tests {
		if got := FormatCompact(v); got != want {
			t.Errorf("FormatCompact(%v) = %q, want %q", v, got, want)
		}
	}
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name   string
		v      model.Value
		column string
		scale  Scale
		want   string
	}{
		{"money", model.Number(1500), model.ColVariance, ScaleK, "1.50"},
		{"percent", model.Number(0.25), model.ColMargin, ScaleK, "25.00%"},
		{"plain", model.Number(42), "Quantity", ScaleK, "42"},
		{"text", model.Text("Ops"), model.ColDepartment, ScaleRaw, "Ops"},
		{"missing", model.Missing(), model.ColVariance, ScaleRaw, "n/a"},
		{"blank", model.Value{}, model.ColVariance, ScaleRaw, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCell(tt.v, tt.column, tt.scale); got != tt.want {
				t.Errorf("FormatCell = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := map[int64]string{0: "0", 999: "999", 1000: "1,000", -1234567: "-1,234,567"}
	for n, want := range tests {
		if got := FormatNumber(n); got != want {
			t.Errorf("FormatNumber(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline(nil); got != "" {
		t.Errorf("empty sparkline = %q", got)
	}
	got := []rune(RenderSparkline([]float64{1.0, 1.05, 1.10}))
	if len(got) != 3 || got[0] != '▁' || got[2] != '█' {
		t.Errorf("sparkline = %q", string(got))
	}
}
