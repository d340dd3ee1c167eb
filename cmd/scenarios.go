package cmd

import (
	"fmt"

	"github.com/theirongolddev/budgetlens/internal/cli"

	"github.com/spf13/cobra"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios [files...]",
	Short: "What-if totals under ±5% FX, price and volume shocks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScenarios,
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}

func runScenarios(_ *cobra.Command, args []string) error {
	an, err := runPipeline(args, nil)
	if err != nil {
		return err
	}
	if err := requireFeature(an.opts.Features.Scenarios, "scenario analysis", an.opts.Tier); err != nil {
		return err
	}
	sc, scale := an.res.Scenarios, an.scale
	sfx := scale.Suffix()

	fmt.Println()
	fmt.Println(cli.RenderTitle("WHAT-IF SCENARIOS"))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Base",
		Headers: []string{"Planned" + sfx, "FX-Adjusted Actual" + sfx, "Variance" + sfx},
		Rows: [][]string{{
			cli.FormatMoney(sc.Summary.BasePlanned, scale, 2),
			cli.FormatMoney(sc.Summary.BaseActualFX, scale, 2),
			cli.FormatSigned(sc.Summary.BaseVariance, scale),
		}},
	}))
	fmt.Println()

	rows := make([][]string, 0, len(sc.Scenarios))
	for _, s := range sc.Scenarios {
		rows = append(rows, []string{
			s.Name,
			cli.FormatMoney(s.TotalPlanned, scale, 2),
			cli.FormatMoney(s.TotalActualFX, scale, 2),
			cli.FormatSigned(s.TotalVariance, scale),
			cli.FormatSigned(s.DeltaVsBase, scale),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Scenarios",
		Headers: []string{"Scenario", "Planned" + sfx, "FX-Adj Actual" + sfx, "Variance" + sfx, "Delta vs Base" + sfx},
		Rows:    rows,
	}))

	for _, s := range sc.Skipped {
		fmt.Printf("  %s\n", cli.Muted("skipped: "+s))
	}
	return nil
}
