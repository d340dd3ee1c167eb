// Package model defines the table and result types shared by the budget
// pipeline, exporters, and presentation layers.
package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Canonical column names.
const (
	ColCostCenter       = "Cost Center"
	ColVersion          = "Version"
	ColScenario         = "Scenario"
	ColPlanned          = "Planned"
	ColActual           = "Actual"
	ColFXRate           = "FX Rate"
	ColFXAdjustedActual = "FX Adjusted Actual"
	ColVariance         = "Variance"
	ColMonth            = "Month"
	ColPrice            = "Price"
	ColQuantity         = "Quantity"
	ColMargin           = "Margin"
	ColGrowth           = "Growth"
	ColUtilization      = "Utilization"
	ColCategory         = "Category"
	ColDepartment       = "Department"
	ColRegion           = "Region"
	ColProduct          = "Product"
	ColCustomer         = "Customer"
)

// Kind tags the content of a Value.
type Kind uint8

const (
	KindEmpty   Kind = iota // blank cell
	KindNumber              // numeric cell
	KindText                // free text
	KindTime                // date/time cell
	KindMissing             // a numeric cell whose input could not be coerced
)

// Value is a single typed spreadsheet cell.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Time time.Time
}

// Number returns a numeric cell. NaN and infinities become Missing.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing()
	}
	return Value{Kind: KindNumber, Num: f}
}

// Text returns a text cell; blank strings become Empty.
func Text(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Value{}
	}
	return Value{Kind: KindText, Str: s}
}

// TimeValue returns a date cell.
func TimeValue(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

// Missing returns the missing-value sentinel.
func Missing() Value { return Value{Kind: KindMissing} }

// IsBlank reports whether the cell carries no input at all.
func (v Value) IsBlank() bool { return v.Kind == KindEmpty }

// Float coerces the cell to a number. Text is parsed leniently
// (thousands separators, currency symbols, accounting negatives, percents).
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindText:
		return ParseNumber(v.Str)
	default:
		return 0, false
	}
}

// String renders the cell as a display label.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindText:
		return v.Str
	case KindTime:
		if v.Time.Hour() == 0 && v.Time.Minute() == 0 && v.Time.Second() == 0 {
			return v.Time.Format("2006-01-02")
		}
		return v.Time.Format(time.RFC3339)
	default:
		return ""
	}
}

// MarshalJSON encodes numbers as numbers, blanks and missing cells as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Num)
	case KindText, KindTime:
		return json.Marshal(v.String())
	default:
		return []byte("null"), nil
	}
}

// ParseNumber parses spreadsheet-style numeric text such as "1,234.50",
// "$ 99", "(120)" or "12.5%". Percentages are returned as fractions.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	pct := false
	if strings.HasSuffix(s, "%") {
		pct = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '$', '€', '£', '¥', '฿', '\u00a0':
			return -1
		}
		return r
	}, s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if pct {
		f /= 100
	}
	if neg {
		f = -f
	}
	return f, true
}

// Table is an ordered set of named columns over rows of cells.
type Table struct {
	Columns []string
	Rows    [][]Value

	// synthetic marks columns filled with defaults rather than supplied
	// by the uploaded file.
	synthetic map[string]bool
}

// NewTable returns an empty table with the given header.
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// Supplied reports whether the column exists and came from the input
// rather than from a default fill.
func (t *Table) Supplied(name string) bool {
	return t.Has(name) && !t.synthetic[name]
}

// AppendRow adds a row, padding or truncating it to the header width.
func (t *Table) AppendRow(vals []Value) {
	row := make([]Value, len(t.Columns))
	copy(row, vals)
	t.Rows = append(t.Rows, row)
}

// Get returns the cell at row/column, or Empty when the column is absent.
func (t *Table) Get(row int, col string) Value {
	idx := t.Index(col)
	if idx < 0 || row < 0 || row >= len(t.Rows) || idx >= len(t.Rows[row]) {
		return Value{}
	}
	return t.Rows[row][idx]
}

// Float returns the numeric value at row/column.
func (t *Table) Float(row int, col string) (float64, bool) {
	return t.Get(row, col).Float()
}

// Label returns the cell as a grouping label.
func (t *Table) Label(row int, col string) string {
	return strings.TrimSpace(t.Get(row, col).String())
}

// AddColumn appends a column filled with fill. If the column already
// exists it is left untouched and false is returned.
func (t *Table) AddColumn(name string, fill Value, synthetic bool) bool {
	if t.Has(name) {
		return false
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], fill)
	}
	if synthetic {
		if t.synthetic == nil {
			t.synthetic = make(map[string]bool)
		}
		t.synthetic[name] = true
	}
	return true
}

// SetColumn writes vals into the named column, creating it when absent.
func (t *Table) SetColumn(name string, vals []Value) {
	idx := t.Index(name)
	if idx < 0 {
		t.AddColumn(name, Value{}, false)
		idx = len(t.Columns) - 1
	}
	delete(t.synthetic, name)
	for i := range t.Rows {
		if i < len(vals) {
			t.Rows[i][idx] = vals[i]
		} else {
			t.Rows[i][idx] = Value{}
		}
	}
}

// Rename changes a column header in place.
func (t *Table) Rename(from, to string) bool {
	idx := t.Index(from)
	if idx < 0 || t.Has(to) {
		return false
	}
	t.Columns[idx] = to
	if t.synthetic[from] {
		delete(t.synthetic, from)
		t.synthetic[to] = true
	}
	return true
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := NewTable(t.Columns)
	out.Rows = make([][]Value, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]Value, len(r))
		copy(row, r)
		out.Rows[i] = row
	}
	if len(t.synthetic) > 0 {
		out.synthetic = make(map[string]bool, len(t.synthetic))
		for k, v := range t.synthetic {
			out.synthetic[k] = v
		}
	}
	return out
}

// Head returns a copy limited to the first n rows.
func (t *Table) Head(n int) *Table {
	out := t.Clone()
	if n >= 0 && n < len(out.Rows) {
		out.Rows = out.Rows[:n]
	}
	return out
}

// MarshalJSON encodes the table as an array of records whose keys keep
// the column order.
func (t *Table) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('[')
	for i, row := range t.Rows {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('{')
		for j, col := range t.Columns {
			if j > 0 {
				b.WriteByte(',')
			}
			key, err := json.Marshal(col)
			if err != nil {
				return nil, err
			}
			b.Write(key)
			b.WriteByte(':')
			var v Value
			if j < len(row) {
				v = row[j]
			}
			val, err := v.MarshalJSON()
			if err != nil {
				return nil, err
			}
			b.Write(val)
		}
		b.WriteByte('}')
	}
	b.WriteByte(']')
	return b.Bytes(), nil
}
