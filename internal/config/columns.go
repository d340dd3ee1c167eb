package config

import "github.com/theirongolddev/budgetlens/internal/model"

// ColumnAlias maps a canonical column onto the header names accepted for
// it. Names are tried in order.
type ColumnAlias struct {
	Canonical string   `toml:"canonical"`
	Names     []string `toml:"names"`
}

// ColumnsConfig controls column normalization and drilldowns.
type ColumnsConfig struct {
	Required  []string      `toml:"required"`
	Drilldown []string      `toml:"drilldown"`
	Aliases   []ColumnAlias `toml:"alias"`
}

// DefaultColumns returns the stock alias table. Declaration order is the
// tie-break when two input headers could map to the same target.
func DefaultColumns() ColumnsConfig {
	return ColumnsConfig{
		Required: []string{model.ColCostCenter, model.ColPlanned},
		Drilldown: []string{
			model.ColCategory,
			model.ColDepartment,
			model.ColRegion,
			model.ColProduct,
			model.ColCustomer,
		},
		Aliases: []ColumnAlias{
			{model.ColCostCenter, []string{"Cost Center", "CostCenter", "Cost_Center", "CC"}},
			{model.ColPlanned, []string{"Planned", "Plan", "Budget"}},
			{model.ColActual, []string{"Actual", "Actuals"}},
			{model.ColFXRate, []string{"FX Rate", "FXRate", "FX", "Rate"}},
			{model.ColVersion, []string{"Version", "Ver"}},
			{model.ColScenario, []string{"Scenario"}},
			{model.ColMonth, []string{"Month", "Period", "Date"}},
			{model.ColPrice, []string{"Price", "Unit Price"}},
			{model.ColQuantity, []string{"Quantity", "Qty", "Volume"}},
			{model.ColMargin, []string{"Margin", "Margin %"}},
			{model.ColGrowth, []string{"Growth", "YoY %"}},
			{model.ColUtilization, []string{"Utilization", "Utilisation"}},
			{model.ColCategory, []string{"Category"}},
			{model.ColDepartment, []string{"Department", "Dept"}},
			{model.ColRegion, []string{"Region"}},
			{model.ColProduct, []string{"Product"}},
			{model.ColCustomer, []string{"Customer"}},
		},
	}
}
