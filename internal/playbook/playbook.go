// Package playbook loads YAML remediation playbooks and selects the ones
// whose applies_if condition holds for an analysis summary.
package playbook

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/theirongolddev/budgetlens/internal/model"
)

//go:embed defaults/*.yaml
var defaultFS embed.FS

// Playbook is a canned remediation plan.
type Playbook struct {
	ID              string     `yaml:"id" json:"id"`
	Title           string     `yaml:"title" json:"title"`
	Rationale       string     `yaml:"rationale" json:"rationale"`
	Steps           []string   `yaml:"steps" json:"steps"`
	ExpectedOutcome string     `yaml:"expected_outcome,omitempty" json:"expected_outcome,omitempty"`
	AppliesIf       *Condition `yaml:"applies_if,omitempty" json:"-"`
}

// Parse decodes one playbook document. Unknown keys are rejected.
func Parse(data []byte) (Playbook, error) {
	var pb Playbook
	if err := yaml.UnmarshalStrict(data, &pb); err != nil {
		return pb, err
	}
	if strings.TrimSpace(pb.ID) == "" {
		return pb, errors.New("missing id")
	}
	if strings.TrimSpace(pb.Title) == "" {
		return pb, fmt.Errorf("%s: missing title", pb.ID)
	}
	if pb.AppliesIf != nil {
		if err := pb.AppliesIf.Validate(); err != nil {
			return pb, fmt.Errorf("%s: applies_if: %w", pb.ID, err)
		}
	}
	return pb, nil
}

// LoadDir reads every .yml/.yaml file in dir, in file-name order.
func LoadDir(dir string) ([]Playbook, error) {
	return LoadFS(os.DirFS(dir), ".")
}

// LoadFS reads every .yml/.yaml file in dir of fsys, in file-name order.
// Duplicate ids are rejected.
func LoadFS(fsys fs.FS, dir string) ([]Playbook, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading playbooks: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(path.Ext(e.Name())) {
		case ".yml", ".yaml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	seen := make(map[string]string, len(names))
	out := make([]Playbook, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		pb, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		if prev, dup := seen[pb.ID]; dup {
			return nil, fmt.Errorf("duplicate playbook id %q in %s and %s", pb.ID, prev, name)
		}
		seen[pb.ID] = name
		out = append(out, pb)
	}
	return out, nil
}

// Defaults returns the built-in playbooks.
func Defaults() []Playbook {
	pbs, err := LoadFS(defaultFS, "defaults")
	if err != nil {
		panic(fmt.Sprintf("built-in playbooks: %v", err))
	}
	return pbs
}

// Load returns the playbooks in dir, or the built-in set when dir is empty.
func Load(dir string) ([]Playbook, error) {
	if dir == "" {
		return Defaults(), nil
	}
	return LoadDir(dir)
}

// Select returns the playbooks that apply to s, preserving load order.
// A playbook without applies_if never applies.
func Select(pbs []Playbook, s model.Summary) []Playbook {
	out := make([]Playbook, 0, len(pbs))
	for _, pb := range pbs {
		if pb.AppliesIf != nil && pb.AppliesIf.Eval(s) {
			out = append(out, pb)
		}
	}
	return out
}
