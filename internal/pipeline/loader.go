package pipeline

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/budgetlens/internal/config"
	"github.com/theirongolddev/budgetlens/internal/model"
	"github.com/theirongolddev/budgetlens/internal/source"
)

// LoadedFile is one parsed input file.
type LoadedFile struct {
	Path  string
	Table *model.Table
	Err   error
}

// LoadResult holds the output of loading a batch of files.
type LoadResult struct {
	Files       []LoadedFile
	TotalFiles  int
	ParsedFiles int
	FileErrors  int
	TotalRows   int
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load parses every path with a bounded worker pool. Per-file failures are
// recorded on the file rather than aborting the batch. Files keep the
// order of paths.
func Load(paths []string, progressFn ProgressFunc) *LoadResult {
	return loadWith(paths, source.ReadFile, progressFn, 0)
}

func loadWith(paths []string, read func(string) (*model.Table, error), progressFn ProgressFunc, offset int) *LoadResult {
	result := &LoadResult{TotalFiles: len(paths)}
	if len(paths) == 0 {
		return result
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(paths) {
		numWorkers = len(paths)
	}

	work := make(chan int, len(paths))
	files := make([]LoadedFile, len(paths))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range paths {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				t, err := read(paths[idx])
				files[idx] = LoadedFile{Path: paths[idx], Table: t, Err: err}
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n)+offset, len(paths)+offset)
				}
			}
		}()
	}

	wg.Wait()

	result.Files = files
	for _, f := range files {
		if f.Err != nil {
			result.FileErrors++
			continue
		}
		result.ParsedFiles++
		result.TotalRows += f.Table.Len()
	}
	return result
}

// Merge normalizes and concatenates the successfully parsed tables.
// Columns are the union in first-seen order; cells absent from a file
// are blank.
func (r *LoadResult) Merge(aliases []config.ColumnAlias) *model.Table {
	var cols []string
	seen := make(map[string]bool)
	tables := make([]*model.Table, 0, len(r.Files))
	for _, f := range r.Files {
		if f.Err != nil {
			continue
		}
		t := f.Table.Clone()
		Normalize(t, aliases)
		tables = append(tables, t)
		for _, c := range t.Columns {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}

	out := model.NewTable(cols)
	for _, t := range tables {
		for i := range t.Rows {
			row := make([]model.Value, len(cols))
			for j, c := range cols {
				row[j] = t.Get(i, c)
			}
			out.AppendRow(row)
		}
	}
	return out
}
