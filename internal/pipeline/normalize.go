package pipeline

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetlens/internal/config"
	"github.com/theirongolddev/budgetlens/internal/model"
)

// MissingColumnsError reports required columns absent after normalization.
type MissingColumnsError struct {
	Missing []string `json:"missing"`
	Found   []string `json:"found"`
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// Normalize renames alias headers onto their canonical names in place.
//
// Targets are processed in declaration order. A target that already exists
// is left alone; otherwise the first of its names found in the table wins,
// matching exactly before falling back to a case and whitespace insensitive
// comparison. A column claimed by an earlier target is never renamed again.
func Normalize(t *model.Table, aliases []config.ColumnAlias) {
	claimed := make(map[int]bool, len(aliases))
	for _, a := range aliases {
		if idx := t.Index(a.Canonical); idx >= 0 {
			claimed[idx] = true
		}
	}

	for _, a := range aliases {
		if t.Has(a.Canonical) {
			continue
		}
		idx := findAlias(t.Columns, a.Names, claimed)
		if idx < 0 {
			continue
		}
		t.Rename(t.Columns[idx], a.Canonical)
		claimed[idx] = true
	}
}

func findAlias(columns, names []string, claimed map[int]bool) int {
	for _, name := range names {
		for i, c := range columns {
			if !claimed[i] && c == name {
				return i
			}
		}
	}
	for _, name := range names {
		key := foldHeader(name)
		for i, c := range columns {
			if !claimed[i] && foldHeader(c) == key {
				return i
			}
		}
	}
	return -1
}

func foldHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Validate returns a *MissingColumnsError when any required column is absent.
func Validate(t *model.Table, required []string) error {
	var missing []string
	for _, col := range required {
		if !t.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	found := make([]string, len(t.Columns))
	copy(found, t.Columns)
	return &MissingColumnsError{Missing: missing, Found: found}
}

// FillDefaults adds Actual (0) and FX Rate (1) when the input lacks them.
// The added columns are marked synthetic so FX-dependent features stay off.
func FillDefaults(t *model.Table) {
	t.AddColumn(model.ColActual, model.Number(0), true)
	t.AddColumn(model.ColFXRate, model.Number(1), true)
}
