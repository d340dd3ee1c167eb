package cmd

import (
	"fmt"

	"github.com/theirongolddev/budgetlens/internal/cli"
	"github.com/theirongolddev/budgetlens/internal/pipeline"

	"github.com/spf13/cobra"
)

var flagThreshold float64

var alertsCmd = &cobra.Command{
	Use:   "alerts [files...]",
	Short: "Months where rolling 3-month actual/plan crosses the alert threshold",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAlerts,
}

func init() {
	alertsCmd.Flags().Float64Var(&flagThreshold, "threshold", -1, "Alert when rolling actual/plan reaches 1+threshold, e.g. 0.08 (default from config)")
	rootCmd.AddCommand(alertsCmd)
}

func runAlerts(_ *cobra.Command, args []string) error {
	an, err := runPipeline(args, func(o *pipeline.Options) {
		if flagThreshold >= 0 {
			o.Thresholds.AlertPct = flagThreshold
		}
	})
	if err != nil {
		return err
	}
	if err := requireFeature(an.opts.Features.Alerts, "overspend alerts", an.opts.Tier); err != nil {
		return err
	}
	al, scale := an.res.Alerts, an.scale

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("OVERSPEND ALERTS  threshold %s", cli.FormatPercent(1+al.Threshold, 0))))
	fmt.Println()

	if al.Note != "" {
		fmt.Printf("  %s\n\n", cli.Muted(al.Note))
		return nil
	}

	rolling := make([]float64, 0, len(al.Series))
	rows := make([][]string, 0, len(al.Series))
	for _, p := range al.Series {
		r3 := "-"
		if p.Rolling3M != nil {
			r3 = cli.FormatPercent(*p.Rolling3M, 1)
			rolling = append(rolling, *p.Rolling3M)
		}
		rows = append(rows, []string{
			p.Month.String(),
			cli.FormatMoney(p.Planned, scale, 2),
			cli.FormatMoney(p.FXAdjustedActual, scale, 2),
			cli.FormatPercent(p.Ratio, 1),
			r3,
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Monthly Series",
		Headers: []string{"Month", "Planned" + scale.Suffix(), "FX-Adj Actual" + scale.Suffix(), "Actual/Plan", "Rolling 3M"},
		Rows:    rows,
	}))
	if len(rolling) > 0 {
		fmt.Printf("\n  Rolling 3M  %s\n", cli.RenderSparkline(rolling))
	}
	fmt.Println()

	if len(al.Crossings) == 0 {
		fmt.Printf("  %s\n", cli.Muted("No threshold crossings."))
		return nil
	}
	for _, c := range al.Crossings {
		fmt.Printf("  %s  %s  %s\n", cli.Warn("▲ "+c.Month.String()), cli.FormatPercent(c.Ratio, 1), c.Note)
	}
	return nil
}
