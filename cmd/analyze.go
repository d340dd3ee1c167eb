package cmd

import (
	"fmt"
	"math"

	"github.com/theirongolddev/budgetlens/internal/cli"
	"github.com/theirongolddev/budgetlens/internal/model"
	"github.com/theirongolddev/budgetlens/internal/pipeline"

	"github.com/spf13/cobra"
)

var flagAnalyzeTop int

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files...]",
	Short: "Variance summary grouped by version, scenario and cost center",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntVar(&flagAnalyzeTop, "top", 10, "Groups to chart by absolute variance")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	an, err := runPipeline(args, nil)
	if err != nil {
		return err
	}
	res, scale := an.res, an.scale

	sum := pipeline.SummaryOf(res.Table)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("BUDGET VARIANCE  %s tier", res.Tier)))
	fmt.Println()

	rows := [][]string{
		{"Rows", cli.FormatNumber(int64(res.Table.Len()))},
		{"Groups", cli.FormatNumber(int64(res.Summary.Len()))},
		{"---"},
		{"Total Planned" + scale.Suffix(), cli.FormatMoney(sum.TotalPlanned, scale, 2)},
		{"FX-Adjusted Actual" + scale.Suffix(), cli.FormatMoney(sum.TotalFXAdjustedActual, scale, 2)},
		{"Total Variance" + scale.Suffix(), cli.FormatSigned(sum.TotalVariance, scale)},
		{"Variance % of Plan", cli.FormatPercent(sum.VariancePctOfPlan, 2)},
	}
	if sum.FXContributionPct != nil {
		rows = append(rows, []string{"FX Contribution", cli.FormatPercent(*sum.FXContributionPct, 1)})
	}
	if res.Accuracy != nil {
		rows = append(rows, []string{"---"}, []string{"Accuracy Score", fmt.Sprintf("%.2f", *res.Accuracy)})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))
	fmt.Println()

	fmt.Print(cli.RenderTable(tableFor(res.Summary, scale, "Summary")))

	// Largest groups by absolute variance in the first drilldown dimension
	dim := pipeline.DrilldownFallback
	for _, d := range an.opts.Columns.Drilldown {
		if res.Table.Supplied(d) {
			dim = d
			break
		}
	}
	agg := pipeline.Aggregate(res.Table, pipeline.GroupSpec{
		Keys:  []string{dim},
		Sum:   []string{model.ColVariance},
		Order: pipeline.OrderByAbs(model.ColVariance),
	})
	n := min(agg.Len(), flagAnalyzeTop)
	if n > 0 {
		peak := 0.0
		for i := 0; i < n; i++ {
			v, _ := agg.Float(i, model.ColVariance)
			peak = math.Max(peak, math.Abs(v))
		}
		fmt.Println()
		fmt.Printf("  Top variances by %s\n", dim)
		for i := 0; i < n; i++ {
			v, _ := agg.Float(i, model.ColVariance)
			label := agg.Label(i, dim)
			if label == "" {
				label = "(blank)"
			}
			fmt.Printf("  %s  %s\n", cli.RenderHorizontalBar(label, v, peak, 30), cli.FormatSigned(v, scale))
		}
	}
	return nil
}

// tableFor converts a model table into a CLI table, formatting money and
// percent columns for display.
func tableFor(t *model.Table, scale cli.Scale, title string) cli.Table {
	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c
		if cli.IsMoneyColumn(c) {
			headers[i] += scale.Suffix()
		}
	}
	rows := make([][]string, t.Len())
	for i := range t.Rows {
		row := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			row[j] = cli.FormatCell(t.Rows[i][j], c, scale)
		}
		rows[i] = row
	}
	return cli.Table{Title: title, Headers: headers, Rows: rows}
}
