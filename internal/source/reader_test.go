package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theirongolddev/budgetlens/internal/model"

	"github.com/xuri/excelize/v2"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"budget.xlsx", FormatXLSX},
		{"BUDGET.XLSM", FormatXLSX},
		{"q3.csv", FormatCSV},
		{"notes.txt", FormatUnknown},
		{"noext", FormatUnknown},
	}
	for _, tt := range tests {
		if got := DetectFormat(tt.name); got != tt.want {
			t.Errorf("DetectFormat(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRead_CSV(t *testing.T) {
	in := "\xef\xbb\xbfCost Center,Planned,Actual,Note\n" +
		"CC1,10000,12000,travel\n" +
		",,,\n" +
		"CC2,5000,4500,\n"

	tbl, err := Read(strings.NewReader(in), "upload.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (blank row skipped)", tbl.Len())
	}
	if tbl.Columns[0] != "Cost Center" {
		t.Errorf("Columns[0] = %q, want BOM stripped", tbl.Columns[0])
	}
	if v := tbl.Get(0, "Planned"); v.Kind != model.KindNumber || v.Num != 10000 {
		t.Errorf("Planned[0] = %+v, want number 10000", v)
	}
	if v := tbl.Get(0, "Note"); v.Kind != model.KindText || v.Str != "travel" {
		t.Errorf("Note[0] = %+v, want text travel", v)
	}
	if v := tbl.Get(1, "Note"); !v.IsBlank() {
		t.Errorf("Note[1] = %+v, want blank", v)
	}
}

func TestRead_CSVRaggedRows(t *testing.T) {
	in := "Cost Center,Planned,Actual\nCC1,100\nCC2,200,250,extra\n"

	tbl, err := Read(strings.NewReader(in), "ragged.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tbl.Rows[0]) != 3 || len(tbl.Rows[1]) != 3 {
		t.Errorf("row widths = %d/%d, want 3/3", len(tbl.Rows[0]), len(tbl.Rows[1]))
	}
	if !tbl.Get(0, "Actual").IsBlank() {
		t.Errorf("short row should pad with blanks")
	}
}

func TestRead_HeaderNames(t *testing.T) {
	in := "Planned,,Planned,Planned\n1,2,3,4\n"

	tbl, err := Read(strings.NewReader(in), "dup.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Planned", "Column 2", "Planned.1", "Planned.2"}
	for i, w := range want {
		if tbl.Columns[i] != w {
			t.Errorf("Columns[%d] = %q, want %q", i, tbl.Columns[i], w)
		}
	}
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		file  string
		want  error
	}{
		{"unsupported", "a,b\n1,2\n", "data.json", ErrUnsupportedFormat},
		{"empty", "", "empty.csv", ErrNoHeader},
		{"blank only", ",,\n , \n", "blank.csv", ErrNoHeader},
		{"header only", "Cost Center,Planned\n", "header.csv", ErrNoData},
		{"corrupt workbook", "not a zip", "broken.xlsx", ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), tt.file)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if !IsInputError(err) {
				t.Errorf("IsInputError(%v) = false, want true", err)
			}
		})
	}
}

func TestRead_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Cost Center", "Planned", "Actual", "FX Rate", "Month"},
		{"CC1", 10000, 10000, 1.2, 45292}, // 2024-01-01 as an Excel serial
		{"CC2", 5000, 4000, nil, 45323},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "budget.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	tbl, err := ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len = %d, want 2", tbl.Len())
	}
	if got, ok := tbl.Float(0, "FX Rate"); !ok || got != 1.2 {
		t.Errorf("FX Rate[0] = %v (%v), want 1.2", got, ok)
	}
	if !tbl.Get(1, "FX Rate").IsBlank() {
		t.Errorf("FX Rate[1] = %+v, want blank", tbl.Get(1, "FX Rate"))
	}
	if got, ok := tbl.Float(1, "Month"); !ok || got != 45323 {
		t.Errorf("Month[1] = %v, want raw serial 45323", got)
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want not-exist", err)
	}
	if err != nil && IsInputError(err) {
		t.Errorf("IsInputError(not-exist) = true, want false")
	}
}
