// Package source reads uploaded budget spreadsheets into model tables.
package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/theirongolddev/budgetlens/internal/model"

	"github.com/xuri/excelize/v2"
)

// ReadFile opens path and parses it according to its extension.
func ReadFile(path string) (*model.Table, error) {
	f, err := os.Open(path) //nolint:gosec // input path is chosen by the local user
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Read(f, path)
}

// Read parses an xlsx or csv stream. name is only used to pick the format.
// The first non-blank row is the header; fully blank rows are skipped.
func Read(r io.Reader, name string) (*model.Table, error) {
	var (
		rows [][]string
		err  error
	)
	switch DetectFormat(name) {
	case FormatXLSX:
		rows, err = readXLSX(r)
	case FormatCSV:
		rows, err = readCSV(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return buildTable(rows)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading workbook: %w", ErrMalformed, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	// Raw values keep numbers unformatted and dates as Excel serials.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parsing csv: %w", ErrMalformed, err)
	}
	return rows, nil
}

func buildTable(rows [][]string) (*model.Table, error) {
	start := -1
	for i, row := range rows {
		if !blankRow(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrNoHeader
	}

	t := model.NewTable(headerNames(rows[start]))
	for _, row := range rows[start+1:] {
		if blankRow(row) {
			continue
		}
		vals := make([]model.Value, len(t.Columns))
		for j := range vals {
			if j < len(row) {
				vals[j] = cellValue(row[j])
			}
		}
		t.AppendRow(vals)
	}
	if t.Len() == 0 {
		return nil, ErrNoData
	}
	return t, nil
}

// headerNames trims header cells, names blank ones "Column N", and
// de-duplicates repeats with a ".N" suffix.
func headerNames(row []string) []string {
	seen := make(map[string]int, len(row))
	names := make([]string, len(row))
	for i, h := range row {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "Column " + strconv.Itoa(i+1)
		}
		if n, ok := seen[h]; ok {
			seen[h] = n + 1
			h = h + "." + strconv.Itoa(n+1)
		} else {
			seen[h] = 0
		}
		names[i] = h
	}
	return names
}

func cellValue(raw string) model.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return model.Value{}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return model.Number(f)
	}
	return model.Text(s)
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// IsInputError reports whether err came from unreadable or empty input
// rather than an I/O failure.
func IsInputError(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrNoData) ||
		errors.Is(err, ErrNoHeader) ||
		errors.Is(err, ErrMalformed)
}
