package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS uploads (
    file_path            TEXT PRIMARY KEY,
    format               TEXT NOT NULL,
    columns_json         TEXT NOT NULL,
    row_count            INTEGER NOT NULL,
    file_mtime_ns        INTEGER NOT NULL,
    file_size            INTEGER NOT NULL,
    parsed_at            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS upload_cells (
    file_path            TEXT NOT NULL REFERENCES uploads(file_path) ON DELETE CASCADE,
    row_idx              INTEGER NOT NULL,
    col_idx              INTEGER NOT NULL,
    kind                 INTEGER NOT NULL,
    num                  REAL,
    str                  TEXT,
    ts                   TEXT,
    PRIMARY KEY (file_path, row_idx, col_idx)
);

CREATE INDEX IF NOT EXISTS idx_uploads_parsed ON uploads(parsed_at);
`
