package source

import (
	"errors"
	"path/filepath"
	"strings"
)

// Format identifies an upload's file type.
type Format int

const (
	FormatUnknown Format = iota
	FormatXLSX
	FormatCSV
)

func (f Format) String() string {
	switch f {
	case FormatXLSX:
		return "xlsx"
	case FormatCSV:
		return "csv"
	default:
		return "unknown"
	}
}

var (
	// ErrUnsupportedFormat is returned for file types other than xlsx/xlsm/csv.
	ErrUnsupportedFormat = errors.New("unsupported file type (expected .xlsx, .xlsm or .csv)")
	// ErrNoData is returned when the sheet has a header but no data rows.
	ErrNoData = errors.New("no data rows found")
	// ErrNoHeader is returned when the sheet is completely empty.
	ErrNoHeader = errors.New("no header row found")
	// ErrMalformed wraps decoder failures for corrupt workbooks or csv.
	ErrMalformed = errors.New("malformed upload")
)

// DetectFormat maps a file name onto a Format by extension.
func DetectFormat(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".csv":
		return FormatCSV
	default:
		return FormatUnknown
	}
}
