package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/budgetlens/internal/cli"
	"github.com/theirongolddev/budgetlens/internal/config"
	"github.com/theirongolddev/budgetlens/internal/model"
	"github.com/theirongolddev/budgetlens/internal/pipeline"
	"github.com/theirongolddev/budgetlens/internal/playbook"
	"github.com/theirongolddev/budgetlens/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagConfig    string
	flagTier      string
	flagScale     string
	flagNoCache   bool
	flagQuiet     bool
	flagFilter    string
	flagPlaybooks string
)

var rootCmd = &cobra.Command{
	Use:   "budgetlens [files...]",
	Short: "Budget variance analysis CLI",
	Long: "Analyze planned vs actual spend from CSV and Excel exports: FX-adjusted variance,\n" +
		"what-if scenarios, rolling overspend alerts, recommendations, and executive workbooks.",
	Args:         cobra.ArbitraryArgs,
	RunE:         runAnalyze,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.Path()+")")
	rootCmd.PersistentFlags().StringVarP(&flagTier, "tier", "t", "", "Analysis tier: standard, plus or premium (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&flagScale, "scale", "s", "", "Display scale for amounts: raw, k or m (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, reparse every file")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVarP(&flagFilter, "filter", "f", "", "Keep rows whose column contains a substring, e.g. \"Region=EMEA\"")
	rootCmd.PersistentFlags().StringVar(&flagPlaybooks, "playbooks", "", "Directory of YAML playbooks (default: built-in set)")
}

// loadConfig reads the config file, overlays BUDGETLENS_* environment
// variables, then command-line flags.
func loadConfig() (config.Config, error) {
	path := flagConfig
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return cfg, err
	}
	config.ApplyEnv(&cfg)

	if flagTier != "" {
		cfg.General.Tier = flagTier
	}
	if flagScale != "" {
		cfg.General.Scale = flagScale
	}
	if flagPlaybooks != "" {
		cfg.Playbooks.Dir = flagPlaybooks
	}
	return cfg, nil
}

// runOptions builds pipeline options and the display scale from cfg.
func runOptions(cfg config.Config) (pipeline.Options, cli.Scale, error) {
	scale, err := cli.ParseScale(cfg.General.Scale)
	if err != nil {
		return pipeline.Options{}, "", err
	}
	pbs, err := playbook.Load(cfg.Playbooks.Dir)
	if err != nil {
		return pipeline.Options{}, "", err
	}
	opts, err := pipeline.OptionsFromConfig(cfg, pbs)
	if err != nil {
		return pipeline.Options{}, "", err
	}
	return opts, scale, nil
}

// loadData is the shared data loading path used by all analysis commands.
// Uses the SQLite cache when available for fast subsequent runs.
func loadData(paths []string, aliases []config.ColumnAlias) (*model.Table, error) {
	if len(paths) == 0 {
		return nil, errors.New("no input files (pass one or more .csv, .xlsx or .xlsm paths)")
	}
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Reading %d file(s)...\n", len(paths))
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  Parsing [%d/%d]", current, total)
	}

	var result *pipeline.LoadResult
	if !flagNoCache {
		cache, err := store.Open(pipeline.CachePath())
		if err != nil {
			if !flagQuiet {
				fmt.Fprintf(os.Stderr, "  Cache unavailable, doing full parse\n")
			}
		} else {
			defer func() { _ = cache.Close() }()

			cr, err := pipeline.LoadWithCache(paths, cache, progressFn)
			if err != nil {
				if !flagQuiet {
					fmt.Fprintf(os.Stderr, "\n  Cache error, falling back to full parse\n")
				}
			} else {
				if !flagQuiet && cr.Reparsed == 0 {
					fmt.Fprintf(os.Stderr, "\r  Loaded %s rows from cache    \n", cli.FormatNumber(int64(cr.TotalRows)))
				} else if !flagQuiet {
					fmt.Fprintf(os.Stderr, "\r  %d cached + %d parsed (%s rows)    \n",
						cr.CacheHits, cr.Reparsed, cli.FormatNumber(int64(cr.TotalRows)))
				}
				result = &cr.LoadResult
			}
		}
	}

	if result == nil {
		result = pipeline.Load(paths, progressFn)
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "\r  Parsed %d file(s), %s rows    \n",
				result.ParsedFiles, cli.FormatNumber(int64(result.TotalRows)))
		}
	}

	for _, f := range result.Files {
		if f.Err != nil {
			fmt.Fprintf(os.Stderr, "  %s\n", cli.Warn(fmt.Sprintf("skipped %s: %v", f.Path, f.Err)))
		}
	}
	if result.ParsedFiles == 0 {
		return nil, errors.New("no input file could be read")
	}

	raw := result.Merge(aliases)
	if flagFilter != "" {
		col, substr, ok := strings.Cut(flagFilter, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --filter %q (want Column=substring)", flagFilter)
		}
		raw = pipeline.FilterRows(raw, strings.TrimSpace(col), strings.TrimSpace(substr))
	}
	return raw, nil
}

// analysis is everything an analysis command needs.
type analysis struct {
	cfg   config.Config
	opts  pipeline.Options
	scale cli.Scale
	res   *pipeline.Result
}

// runPipeline loads config and files and executes the pipeline. mutate,
// if non-nil, adjusts the options before the run.
func runPipeline(paths []string, mutate func(*pipeline.Options)) (*analysis, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	opts, scale, err := runOptions(cfg)
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(&opts)
	}

	raw, err := loadData(paths, cfg.Columns.Aliases)
	if err != nil {
		return nil, err
	}
	res, err := pipeline.Run(raw, opts)
	if err != nil {
		var mce *pipeline.MissingColumnsError
		if errors.As(err, &mce) {
			return nil, fmt.Errorf("%w\n  columns found: %s", err, strings.Join(mce.Found, ", "))
		}
		return nil, err
	}
	return &analysis{cfg: cfg, opts: opts, scale: scale, res: res}, nil
}

// requireFeature fails with a tier hint when a stage is off.
func requireFeature(on bool, name, tier string) error {
	if on {
		return nil
	}
	return fmt.Errorf("%s is not available on the %s tier (use --tier plus or --tier premium)", name, tier)
}
