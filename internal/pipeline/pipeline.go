package pipeline

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetlens/internal/config"
	"github.com/theirongolddev/budgetlens/internal/model"
	"github.com/theirongolddev/budgetlens/internal/playbook"
)

// Tier names.
const (
	TierStandard = "standard"
	TierPlus     = "plus"
	TierPremium  = "premium"
)

// Tiers lists the tiers from smallest to largest.
var Tiers = []string{TierStandard, TierPlus, TierPremium}

// Features toggles the optional stages of a run.
type Features struct {
	Scenarios       bool
	Alerts          bool
	Recommendations bool
	Playbooks       bool
	Accuracy        bool
	Reallocation    bool
	Scaling         bool
	ExecBundle      bool
}

// Options parameterizes one pipeline run.
type Options struct {
	Tier       string
	Features   Features
	Thresholds config.Thresholds
	Columns    config.ColumnsConfig
	Playbooks  []playbook.Playbook
}

// FeaturesFor returns the stages enabled for a tier.
func FeaturesFor(tier string) (Features, error) {
	switch strings.ToLower(tier) {
	case TierStandard:
		return Features{}, nil
	case TierPlus:
		return Features{
			Scenarios:       true,
			Alerts:          true,
			Recommendations: true,
		}, nil
	case TierPremium:
		return Features{
			Scenarios:       true,
			Alerts:          true,
			Recommendations: true,
			Playbooks:       true,
			Accuracy:        true,
			Reallocation:    true,
			Scaling:         true,
			ExecBundle:      true,
		}, nil
	}
	return Features{}, fmt.Errorf("unknown tier %q (want one of %s)", tier, strings.Join(Tiers, ", "))
}

// OptionsFromConfig builds run options from the loaded configuration.
func OptionsFromConfig(cfg config.Config, pbs []playbook.Playbook) (Options, error) {
	f, err := FeaturesFor(cfg.General.Tier)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Tier:       strings.ToLower(cfg.General.Tier),
		Features:   f,
		Thresholds: cfg.Thresholds,
		Columns:    cfg.Columns,
		Playbooks:  pbs,
	}, nil
}

// DefaultOptions returns premium options with stock thresholds and the
// built-in playbooks.
func DefaultOptions() Options {
	f, _ := FeaturesFor(TierPremium)
	return Options{
		Tier:       TierPremium,
		Features:   f,
		Thresholds: config.DefaultThresholds(),
		Columns:    config.DefaultColumns(),
		Playbooks:  playbook.Defaults(),
	}
}

// Result holds everything one run produces. Stages that are disabled for
// the tier are left nil.
type Result struct {
	Tier       string                `json:"tier"`
	Table      *model.Table          `json:"-"`
	Summary    *model.Table          `json:"-"`
	Scenarios  *model.ScenarioResult `json:"scenarios,omitempty"`
	Alerts     *model.AlertResult    `json:"alerts,omitempty"`
	Suggestion *model.Suggestion     `json:"suggestion,omitempty"`
	Playbooks  []playbook.Playbook   `json:"playbooks,omitempty"`
	Accuracy   *float64              `json:"accuracy_score,omitempty"`
	Realloc    []model.Reallocation  `json:"reallocation,omitempty"`
}

// Prepare normalizes, validates, fills defaults and calculates variance on
// a copy of raw. It returns a *MissingColumnsError for structural problems.
func Prepare(raw *model.Table, cols config.ColumnsConfig) (*model.Table, error) {
	t := raw.Clone()
	Normalize(t, cols.Aliases)
	if err := Validate(t, cols.Required); err != nil {
		return nil, err
	}
	FillDefaults(t)
	Calculate(t)
	return t, nil
}

// Run executes the full pipeline over raw. raw is not modified.
func Run(raw *model.Table, opts Options) (*Result, error) {
	t, err := Prepare(raw, opts.Columns)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Tier:    opts.Tier,
		Table:   t,
		Summary: Summarize(t),
	}
	f := opts.Features

	if f.Scenarios {
		sc := ComputeScenarios(t)
		res.Scenarios = &sc
	}
	if f.Alerts {
		al := ScanAlerts(t, opts.Thresholds.AlertPct)
		res.Alerts = &al
	}
	if f.Recommendations || f.Playbooks {
		sg := Recommend(t, opts.Thresholds, opts.Columns.Drilldown)
		if f.Recommendations {
			res.Suggestion = &sg
		}
		if f.Playbooks {
			res.Playbooks = playbook.Select(opts.Playbooks, sg.Summary)
		}
	}
	if f.Accuracy {
		score := AccuracyScore(t)
		res.Accuracy = &score
	}
	if f.Reallocation {
		res.Realloc = Reallocations(t, opts.Thresholds.ReallocationBand)
	}
	return res, nil
}
