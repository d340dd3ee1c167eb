package cmd

import (
	"fmt"

	"github.com/theirongolddev/budgetlens/internal/config"
	"github.com/theirongolddev/budgetlens/internal/tui"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive settings: tier, scale, alert threshold and theme",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Existing config or defaults. Env overrides are not persisted.
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	fmt.Println()
	fmt.Println("  Welcome to budgetlens!")
	fmt.Println()

	cfg, err = tui.RunSetup(cfg)
	if err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Run `budgetlens setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
