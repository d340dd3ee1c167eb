// Package cmd implements the budgetlens CLI commands.
package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetlens/internal/cli"
	"github.com/theirongolddev/budgetlens/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := flagConfig
	if path == "" {
		path = config.Path()
	}
	fmt.Printf("  Config file: %s\n", path)
	if config.Exists() || flagConfig != "" {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Tier:  %s\n", cfg.General.Tier)
	fmt.Printf("    Scale: %s\n", cfg.General.Scale)
	fmt.Println()

	th := cfg.Thresholds
	fmt.Println("  [Thresholds]")
	fmt.Printf("    Variance warn (of plan): %s\n", cli.FormatPercent(th.VarianceWarnPctOfPlan, 0))
	fmt.Printf("    FX contribution warn:    %s\n", cli.FormatPercent(th.FXContribWarnPct, 0))
	fmt.Printf("    Margin warn:             %s\n", cli.FormatPercent(th.MarginWarn, 0))
	fmt.Printf("    Growth warn:             %s\n", cli.FormatPercent(th.GrowthWarn, 0))
	fmt.Printf("    Utilization warn:        %s\n", cli.FormatPercent(th.UtilWarn, 0))
	fmt.Printf("    Alert (rolling 3M):      %s of plan\n", cli.FormatPercent(1+th.AlertPct, 0))
	fmt.Printf("    Reallocation band:       %s\n", cli.FormatMoney(th.ReallocationBand, cli.ScaleRaw, 0))
	fmt.Printf("    Drilldown top N:         %d\n", th.TopN)
	fmt.Println()

	fmt.Println("  [Columns]")
	fmt.Printf("    Required:  %s\n", strings.Join(cfg.Columns.Required, ", "))
	fmt.Printf("    Drilldown: %s\n", strings.Join(cfg.Columns.Drilldown, ", "))
	fmt.Printf("    Aliases:   %d canonical columns\n", len(cfg.Columns.Aliases))
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:       %s\n", cfg.Server.Addr)
	fmt.Printf("    Max upload:    %d MB\n", cfg.Server.MaxUploadMB)
	fmt.Printf("    Events buffer: %d\n", cfg.Server.EventsBuffer)
	fmt.Printf("    Log level:     %s\n", cfg.Server.LogLevel)
	fmt.Println()

	fmt.Println("  [Playbooks]")
	if cfg.Playbooks.Dir != "" {
		fmt.Printf("    Directory: %s\n", cfg.Playbooks.Dir)
	} else {
		fmt.Println("    Directory: built-in set")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `budgetlens setup` to reconfigure.")
	return nil
}
