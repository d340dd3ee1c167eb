package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetlens/internal/cli"

	"github.com/spf13/cobra"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest [files...]",
	Short: "Next actions, drilldown hints and matching playbooks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(_ *cobra.Command, args []string) error {
	an, err := runPipeline(args, nil)
	if err != nil {
		return err
	}
	if err := requireFeature(an.opts.Features.Recommendations, "recommendations", an.opts.Tier); err != nil {
		return err
	}
	sg := an.res.Suggestion

	fmt.Println()
	fmt.Println(cli.RenderTitle("NEXT ACTIONS"))
	fmt.Println()

	for i, a := range sg.NextActions {
		fmt.Printf("  %d. %s", i+1, a.Title)
		if len(a.Tags) > 0 {
			fmt.Printf("  %s", cli.Muted("["+strings.Join(a.Tags, ", ")+"]"))
		}
		fmt.Println()
		fmt.Printf("     %s\n", a.Rationale)
		for _, step := range a.HowTo {
			fmt.Printf("     - %s\n", step)
		}
		if a.ExpectedOutcome != "" {
			fmt.Printf("     %s\n", cli.Muted("Expected: "+a.ExpectedOutcome))
		}
		fmt.Println()
	}

	if len(sg.Drilldowns) > 0 {
		rows := make([][]string, 0, len(sg.Drilldowns))
		for _, d := range sg.Drilldowns {
			rows = append(rows, []string{d.Dimension, strings.Join(d.Top, ", ")})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Drill Down First",
			Headers: []string{"Dimension", "Largest variances"},
			Rows:    rows,
		}))
		fmt.Println()
	}

	if !an.opts.Features.Playbooks {
		return nil
	}
	if len(an.res.Playbooks) == 0 {
		fmt.Printf("  %s\n", cli.Muted("No playbook conditions matched."))
		return nil
	}
	fmt.Println(cli.RenderTitle("PLAYBOOKS"))
	fmt.Println()
	for _, pb := range an.res.Playbooks {
		fmt.Printf("  %s  %s\n", pb.Title, cli.Muted(pb.ID))
		fmt.Printf("     %s\n", pb.Rationale)
		for i, step := range pb.Steps {
			fmt.Printf("     %d) %s\n", i+1, step)
		}
		fmt.Println()
	}
	return nil
}
