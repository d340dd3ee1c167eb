// Package store provides a SQLite-backed cache of parsed spreadsheet uploads.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/budgetlens/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache provides SQLite-backed table caching keyed by file path.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked mtime and size for a file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// Entry describes one cached upload.
type Entry struct {
	Path     string
	Format   string
	Rows     int
	FileInfo FileInfo
	ParsedAt time.Time
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all cached uploads.
func (c *Cache) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, file_mtime_ns, file_size FROM uploads")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveTable stores a parsed table for path, replacing any previous copy.
// Blank cells are not stored.
func (c *Cache) SaveTable(path, format string, t *model.Table, fi FileInfo) error {
	cols, err := json.Marshal(t.Columns)
	if err != nil {
		return err
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)

	// Clear old cells before replacing the parent row.
	if _, err := tx.Exec("DELETE FROM upload_cells WHERE file_path = ?", path); err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT OR REPLACE INTO uploads
		(file_path, format, columns_json, row_count, file_mtime_ns, file_size, parsed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		path, format, string(cols), t.Len(), fi.MtimeNs, fi.SizeBytes, now,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO upload_cells
		(file_path, row_idx, col_idx, kind, num, str, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for r, row := range t.Rows {
		for ci, v := range row {
			if v.IsBlank() {
				continue
			}
			var num sql.NullFloat64
			var str, ts sql.NullString
			switch v.Kind {
			case model.KindNumber:
				num = sql.NullFloat64{Float64: v.Num, Valid: true}
			case model.KindText:
				str = sql.NullString{String: v.Str, Valid: true}
			case model.KindTime:
				ts = sql.NullString{String: v.Time.UTC().Format(time.RFC3339Nano), Valid: true}
			}
			if _, err := stmt.Exec(path, r, ci, int(v.Kind), num, str, ts); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// LoadTable reads the cached table for path. ok is false on a cache miss.
func (c *Cache) LoadTable(path string) (*model.Table, bool, error) {
	var colsJSON string
	var rowCount int
	err := c.db.QueryRow("SELECT columns_json, row_count FROM uploads WHERE file_path = ?", path).
		Scan(&colsJSON, &rowCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var cols []string
	if err := json.Unmarshal([]byte(colsJSON), &cols); err != nil {
		return nil, false, fmt.Errorf("decoding cached columns: %w", err)
	}
	t := model.NewTable(cols)
	for i := 0; i < rowCount; i++ {
		t.AppendRow(nil)
	}

	rows, err := c.db.Query(`SELECT row_idx, col_idx, kind, num, str, ts
		FROM upload_cells WHERE file_path = ?`, path)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var r, ci, kind int
		var num sql.NullFloat64
		var str, ts sql.NullString
		if err := rows.Scan(&r, &ci, &kind, &num, &str, &ts); err != nil {
			return nil, false, err
		}
		if r < 0 || r >= rowCount || ci < 0 || ci >= len(cols) {
			continue
		}
		var v model.Value
		switch model.Kind(kind) {
		case model.KindNumber:
			v = model.Number(num.Float64)
		case model.KindText:
			v = model.Text(str.String)
		case model.KindTime:
			parsed, _ := time.Parse(time.RFC3339Nano, ts.String)
			v = model.TimeValue(parsed)
		case model.KindMissing:
			v = model.Missing()
		}
		t.Rows[r][ci] = v
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return t, true, nil
}

// ListEntries returns every cached upload, most recently parsed first.
func (c *Cache) ListEntries() ([]Entry, error) {
	rows, err := c.db.Query(`SELECT file_path, format, row_count, file_mtime_ns, file_size, parsed_at
		FROM uploads ORDER BY parsed_at DESC, file_path`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		var parsedAt string
		if err := rows.Scan(&e.Path, &e.Format, &e.Rows, &e.FileInfo.MtimeNs, &e.FileInfo.SizeBytes, &parsedAt); err != nil {
			return nil, err
		}
		e.ParsedAt, _ = time.Parse(time.RFC3339, parsedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteTable removes a cached upload and its cells.
func (c *Cache) DeleteTable(path string) error {
	_, err := c.db.Exec("DELETE FROM uploads WHERE file_path = ?", path)
	return err
}

// TableCount returns the number of cached uploads.
func (c *Cache) TableCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM uploads").Scan(&count)
	return count, err
}
