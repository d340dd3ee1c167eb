package playbook

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theirongolddev/budgetlens/internal/model"
)

func f64(v float64) *float64 { return &v }

func TestDefaults_Load(t *testing.T) {
	pbs := Defaults()
	if len(pbs) == 0 {
		t.Fatal("expected built-in playbooks")
	}
	seen := make(map[string]bool)
	for _, pb := range pbs {
		if seen[pb.ID] {
			t.Errorf("duplicate id %s", pb.ID)
		}
		seen[pb.ID] = true
		if pb.AppliesIf == nil {
			t.Errorf("%s: applies_if missing", pb.ID)
		}
		if len(pb.Steps) == 0 {
			t.Errorf("%s: no steps", pb.ID)
		}
	}
	if pbs[0].ID != "PB-VAR-01" {
		t.Errorf("first playbook = %s, want PB-VAR-01 (file-name order)", pbs[0].ID)
	}
}

func TestSelect_Defaults(t *testing.T) {
	s := model.Summary{
		TotalPlanned:          10000,
		TotalFXAdjustedActual: 12000,
		TotalVariance:         2000,
		VariancePctOfPlan:     0.2,
		FXContributionPct:     f64(0.5),
		AvgMargin:             f64(0.35),
	}
	got := Select(Defaults(), s)

	var ids []string
	for _, pb := range got {
		ids = append(ids, pb.ID)
	}
	want := "PB-VAR-01,PB-FX-01,PB-COST-01"
	if strings.Join(ids, ",") != want {
		t.Errorf("selected = %v, want %s", ids, want)
	}
}

func TestCondition_Eval(t *testing.T) {
	s := model.Summary{
		TotalPlanned:      100,
		TotalVariance:     -15,
		VariancePctOfPlan: -0.15,
		AvgGrowth:         f64(0),
	}
	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"gt", Condition{Metric: "total_planned", Op: OpGT, Value: 50}, true},
		{"lt false", Condition{Metric: "total_planned", Op: OpLT, Value: 50}, false},
		{"abs metric", Condition{Metric: "abs_variance_pct_of_plan", Op: OpGTE, Value: 0.15}, true},
		{"eq", Condition{Metric: "avg_growth", Op: OpEQ, Value: 0}, true},
		{"ne", Condition{Metric: "avg_growth", Op: OpNE, Value: 0}, false},
		{"absent metric compares false", Condition{Metric: "avg_margin", Op: OpLT, Value: 1}, false},
		{"absent", Condition{Metric: "avg_margin", Op: OpAbsent}, true},
		{"present", Condition{Metric: "avg_growth", Op: OpPresent}, true},
		{"all", Condition{All: []Condition{
			{Metric: "total_planned", Op: OpGT, Value: 0},
			{Metric: "total_variance", Op: OpLT, Value: 0},
		}}, true},
		{"any", Condition{Any: []Condition{
			{Metric: "total_planned", Op: OpLT, Value: 0},
			{Metric: "avg_margin", Op: OpAbsent},
		}}, true},
		{"not", Condition{Not: &Condition{Metric: "total_planned", Op: OpGT, Value: 0}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cond.Validate(); err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if got := tt.cond.Eval(s); got != tt.want {
				t.Errorf("Eval = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown metric", "id: X\ntitle: T\napplies_if:\n  metric: revenue\n  op: gt\n  value: 1\n", "unknown metric"},
		{"unknown op", "id: X\ntitle: T\napplies_if:\n  metric: total_variance\n  op: between\n", "unknown op"},
		{"two kinds", "id: X\ntitle: T\napplies_if:\n  metric: total_variance\n  op: gt\n  not:\n    metric: total_variance\n    op: lt\n", "exactly one"},
		{"empty all", "id: X\ntitle: T\napplies_if:\n  all: []\n", "empty list"},
		{"expression string", "id: X\ntitle: T\napplies_if: \"summary['total_variance'] > 0\"\n", "unmarshal"},
		{"unknown key", "id: X\ntitle: T\nowner: finance\n", "owner"},
		{"missing id", "title: T\n", "missing id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.yaml":    "id: B\ntitle: Second\nsteps: [one]\napplies_if:\n  metric: total_variance\n  op: gt\n  value: 0\n",
		"a.yml":     "id: A\ntitle: First\nsteps: [one]\n",
		"notes.txt": "ignored",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	pbs, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pbs) != 2 {
		t.Fatalf("len = %d, want 2", len(pbs))
	}
	if pbs[0].ID != "A" || pbs[1].ID != "B" {
		t.Errorf("order = %s,%s, want A,B", pbs[0].ID, pbs[1].ID)
	}

	sel := Select(pbs, model.Summary{TotalVariance: 10})
	if len(sel) != 1 || sel[0].ID != "B" {
		t.Errorf("Select = %v, want only B (A has no applies_if)", sel)
	}
}

func TestLoadDir_DuplicateID(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"1.yaml", "2.yaml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("id: SAME\ntitle: T\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := LoadDir(dir); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("err = %v, want duplicate id error", err)
	}
}
