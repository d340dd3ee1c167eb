package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/budgetlens/internal/cli"
	"github.com/theirongolddev/budgetlens/internal/export"

	"github.com/spf13/cobra"
)

var (
	flagReportOut  string
	flagReportExec bool
)

var reportCmd = &cobra.Command{
	Use:   "report [files...]",
	Short: "Write the executive Excel workbook (or a zip bundle with --exec)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&flagReportOut, "out", "o", "", "Output path (default executive_dashboard_<scale>.xlsx or executive_bundle.zip)")
	reportCmd.Flags().BoolVar(&flagReportExec, "exec", false, "Write the executive bundle: workbook, analysis.json and manifest.json")
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, args []string) error {
	an, err := runPipeline(args, nil)
	if err != nil {
		return err
	}
	if flagReportExec {
		if err := requireFeature(an.opts.Features.ExecBundle, "the executive bundle", an.opts.Tier); err != nil {
			return err
		}
	}

	opts := export.DefaultOptions()
	opts.Scale = an.scale
	opts.TopN = an.opts.Thresholds.TopN * 2
	opts.Dimensions = an.opts.Columns.Drilldown

	out := flagReportOut
	if out == "" {
		out = fmt.Sprintf("executive_dashboard_%s.xlsx", an.scale)
		if flagReportExec {
			out = "executive_bundle.zip"
		}
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	//nolint:gosec // output path is chosen by the local user
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}

	if flagReportExec {
		m, err := export.WriteBundle(f, an.res, opts)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(out)
			return fmt.Errorf("write bundle: %w", err)
		}
		fmt.Printf("  Wrote %s (bundle %s, %s rows, %d playbooks)\n",
			out, m.BundleID, cli.FormatNumber(int64(m.Rows)), len(m.Playbooks))
		return nil
	}

	err = export.WriteWorkbook(f, an.res, opts)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(out)
		return fmt.Errorf("write workbook: %w", err)
	}
	fmt.Printf("  Wrote %s (%s rows)\n", out, cli.FormatNumber(int64(an.res.Table.Len())))
	return nil
}
