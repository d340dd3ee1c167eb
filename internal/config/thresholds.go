package config

import (
	"errors"
	"fmt"
)

// Thresholds holds every tunable cut-off used by the recommendation
// rules, the alert scanner, and the reallocation hints.
type Thresholds struct {
	VarianceWarnPctOfPlan float64 `toml:"variance_warn_pct_of_plan"`
	FXContribWarnPct      float64 `toml:"fx_contrib_warn_pct"`
	MarginWarn            float64 `toml:"margin_warn"`
	GrowthWarn            float64 `toml:"growth_warn"`
	UtilWarn              float64 `toml:"util_warn"`
	TopN                  int     `toml:"top_n"`
	AlertPct              float64 `toml:"alert_pct"`
	ReallocationBand      float64 `toml:"reallocation_band"`
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		VarianceWarnPctOfPlan: 0.10, // variance >= 10% of plan
		FXContribWarnPct:      0.30, // FX explains >= 30% of variance
		MarginWarn:            0.20, // margin < 20%
		GrowthWarn:            0.00, // growth <= 0
		UtilWarn:              0.65, // utilization < 65%
		TopN:                  5,
		AlertPct:              0.08, // rolling 3M actual/plan >= 108%
		ReallocationBand:      3000,
	}
}

// Validate rejects thresholds that cannot produce meaningful output.
func (t Thresholds) Validate() error {
	if t.TopN < 1 {
		return fmt.Errorf("thresholds.top_n must be >= 1, got %d", t.TopN)
	}
	if t.AlertPct < 0 {
		return errors.New("thresholds.alert_pct must not be negative")
	}
	if t.ReallocationBand < 0 {
		return errors.New("thresholds.reallocation_band must not be negative")
	}
	return nil
}
