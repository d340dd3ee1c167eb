package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/theirongolddev/budgetlens/internal/cli"
	"github.com/theirongolddev/budgetlens/internal/pipeline"
	"github.com/theirongolddev/budgetlens/internal/store"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "List parsed uploads held in the SQLite cache",
	RunE:  runCacheList,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [files...]",
	Short: "Drop cached parses (all of them when no files are given)",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheList(_ *cobra.Command, _ []string) error {
	cache, err := store.Open(pipeline.CachePath())
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer func() { _ = cache.Close() }()

	entries, err := cache.ListEntries()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("  Cache: %s\n\n", pipeline.CachePath())
	if len(entries) == 0 {
		fmt.Printf("  %s\n", cli.Muted("empty"))
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Path,
			e.Format,
			cli.FormatNumber(int64(e.Rows)),
			cli.FormatNumber(e.FileInfo.SizeBytes),
			e.ParsedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"File", "Format", "Rows", "Bytes", "Parsed"},
		Rows:    rows,
	}))
	return nil
}

func runCacheClear(_ *cobra.Command, args []string) error {
	cache, err := store.Open(pipeline.CachePath())
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer func() { _ = cache.Close() }()

	paths := make([]string, 0, len(args))
	for _, a := range args {
		abs, err := filepath.Abs(a)
		if err != nil {
			return err
		}
		paths = append(paths, abs)
	}
	if len(paths) == 0 {
		entries, err := cache.ListEntries()
		if err != nil {
			return err
		}
		for _, e := range entries {
			paths = append(paths, e.Path)
		}
	}

	for _, p := range paths {
		if err := cache.DeleteTable(p); err != nil {
			return fmt.Errorf("drop %s: %w", p, err)
		}
	}
	left, err := cache.TableCount()
	if err != nil {
		return err
	}
	fmt.Printf("  Cleared %d cached file(s), %d remaining\n", len(paths), left)
	return nil
}
