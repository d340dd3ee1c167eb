package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/budgetlens/internal/model"
	"github.com/theirongolddev/budgetlens/internal/source"
	"github.com/theirongolddev/budgetlens/internal/store"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	CacheHits int
	Reparsed  int
}

// LoadWithCache diffs paths against the cache by mtime and size, serves
// unchanged files from the cache, and parses only the rest. Freshly parsed
// tables are written back.
func LoadWithCache(paths []string, cache *store.Cache, progressFn ProgressFunc) (*CachedLoadResult, error) {
	tracked, err := cache.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	abs := make([]string, len(paths))
	stats := make([]store.FileInfo, len(paths))
	cached := make([]*model.Table, len(paths))
	var toParse []int

	for i, p := range paths {
		abs[i] = p
		if a, err := filepath.Abs(p); err == nil {
			abs[i] = a
		}
		info, err := os.Stat(abs[i])
		if err != nil {
			toParse = append(toParse, i)
			continue
		}
		stats[i] = store.FileInfo{MtimeNs: info.ModTime().UnixNano(), SizeBytes: info.Size()}

		prev, ok := tracked[abs[i]]
		if ok && prev == stats[i] {
			t, hit, err := cache.LoadTable(abs[i])
			if err != nil {
				return nil, fmt.Errorf("loading cached %s: %w", p, err)
			}
			if hit {
				cached[i] = t
				continue
			}
		}
		toParse = append(toParse, i)
	}

	result := &CachedLoadResult{
		CacheHits: len(paths) - len(toParse),
		Reparsed:  len(toParse),
	}

	parsePaths := make([]string, len(toParse))
	for j, i := range toParse {
		parsePaths[j] = abs[i]
	}
	parsed := loadWith(parsePaths, source.ReadFile, progressFn, result.CacheHits)

	files := make([]LoadedFile, len(paths))
	for i := range paths {
		if cached[i] != nil {
			files[i] = LoadedFile{Path: paths[i], Table: cached[i]}
		}
	}
	for j, i := range toParse {
		f := parsed.Files[j]
		f.Path = paths[i]
		files[i] = f
		if f.Err == nil && stats[i] != (store.FileInfo{}) {
			format := source.DetectFormat(abs[i]).String()
			_ = cache.SaveTable(abs[i], format, f.Table, stats[i])
		}
	}

	result.TotalFiles = len(paths)
	result.Files = files
	for _, f := range files {
		if f.Err != nil {
			result.FileErrors++
			continue
		}
		result.ParsedFiles++
		result.TotalRows += f.Table.Len()
	}
	return result, nil
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "budgetlens")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "budgetlens")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "uploads.db")
}
