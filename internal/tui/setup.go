package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/budgetlens/internal/cli"
	"github.com/theirongolddev/budgetlens/internal/config"
	"github.com/theirongolddev/budgetlens/internal/pipeline"
	"github.com/theirongolddev/budgetlens/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// setupValues holds the settings form fields. The threshold is edited
// as a percentage string, e.g. "8" for 108% of plan.
type setupValues struct {
	tier     string
	scale    string
	alertPct string
	theme    string
}

func valuesFrom(opts pipeline.Options, scale cli.Scale) setupValues {
	return setupValues{
		tier:     opts.Tier,
		scale:    string(scale),
		alertPct: strconv.FormatFloat(opts.Thresholds.AlertPct*100, 'f', -1, 64),
		theme:    theme.Active.Name,
	}
}

func valuesFromConfig(cfg config.Config) setupValues {
	return setupValues{
		tier:     strings.ToLower(cfg.General.Tier),
		scale:    cfg.General.Scale,
		alertPct: strconv.FormatFloat(cfg.Thresholds.AlertPct*100, 'f', -1, 64),
		theme:    cfg.Appearance.Theme,
	}
}

func validateAlertPct(s string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
	if err != nil || f < 0 {
		return fmt.Errorf("enter a non-negative percentage such as 8")
	}
	return nil
}

// apply writes the form values into cfg.
func (v setupValues) apply(cfg *config.Config) error {
	if err := validateAlertPct(v.alertPct); err != nil {
		return err
	}
	pct, _ := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(v.alertPct, "%")), 64)

	cfg.General.Tier = v.tier
	cfg.General.Scale = v.scale
	cfg.Thresholds.AlertPct = pct / 100
	cfg.Appearance.Theme = v.theme
	return nil
}

func newSetupForm(v *setupValues) *huh.Form {
	tiers := make([]huh.Option[string], 0, len(pipeline.Tiers))
	for _, t := range pipeline.Tiers {
		tiers = append(tiers, huh.NewOption(t, t))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Tier").
				Description("Which analysis stages run: standard, plus adds scenarios/alerts/suggestions, premium adds the rest.").
				Options(tiers...).
				Value(&v.tier),
			huh.NewSelect[string]().
				Title("Display scale").
				Options(
					huh.NewOption("Raw (12,345.60)", string(cli.ScaleRaw)),
					huh.NewOption("Thousands (12.35)", string(cli.ScaleK)),
					huh.NewOption("Millions (0.01)", string(cli.ScaleM)),
				).
				Value(&v.scale),
			huh.NewInput().
				Title("Alert threshold (% over plan)").
				Description("A month alerts when its rolling 3-month actual/plan reaches 100% + this.").
				Placeholder("8").
				Validate(validateAlertPct).
				Value(&v.alertPct),
			huh.NewSelect[string]().
				Title("Theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&v.theme),
		),
	).WithShowHelp(true)
}

// RunSetup runs the settings form standalone against cfg and returns the
// updated config. The caller saves it.
func RunSetup(cfg config.Config) (config.Config, error) {
	v := valuesFromConfig(cfg)
	if err := newSetupForm(&v).Run(); err != nil {
		return cfg, err
	}
	if err := v.apply(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
