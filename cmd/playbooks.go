package cmd

import (
	"fmt"

	"github.com/theirongolddev/budgetlens/internal/cli"
	"github.com/theirongolddev/budgetlens/internal/playbook"

	"github.com/spf13/cobra"
)

var playbooksCmd = &cobra.Command{
	Use:   "playbooks",
	Short: "List the playbooks in use",
	RunE:  runPlaybooksList,
}

var playbooksValidateCmd = &cobra.Command{
	Use:   "validate <dir>",
	Short: "Parse and validate every playbook in a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaybooksValidate,
}

func init() {
	playbooksCmd.AddCommand(playbooksValidateCmd)
	rootCmd.AddCommand(playbooksCmd)
}

func runPlaybooksList(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pbs, err := playbook.Load(cfg.Playbooks.Dir)
	if err != nil {
		return err
	}

	source := "built-in"
	if cfg.Playbooks.Dir != "" {
		source = cfg.Playbooks.Dir
	}

	rows := make([][]string, 0, len(pbs))
	for _, pb := range pbs {
		cond := "never"
		if pb.AppliesIf != nil {
			cond = "conditional"
		}
		rows = append(rows, []string{pb.ID, pb.Title, fmt.Sprintf("%d", len(pb.Steps)), cond})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Playbooks (%s)", source),
		Headers: []string{"ID", "Title", "Steps", "Applies"},
		Rows:    rows,
	}))
	return nil
}

func runPlaybooksValidate(_ *cobra.Command, args []string) error {
	pbs, err := playbook.LoadDir(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("  %d playbook(s) OK in %s\n", len(pbs), args[0])
	return nil
}
