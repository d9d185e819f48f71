package db

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

-- One row per finished count run
CREATE TABLE IF NOT EXISTS runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    top_k INTEGER NOT NULL,
    table_kind TEXT NOT NULL,
    source_format TEXT NOT NULL,
    source_count INTEGER NOT NULL,
    total_tokens INTEGER NOT NULL,
    distinct_tokens INTEGER NOT NULL,
    elapsed_us INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

-- Sources counted by a run, in command-line order
CREATE TABLE IF NOT EXISTS run_sources (
    run_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    tokens INTEGER NOT NULL,
    language TEXT,
    PRIMARY KEY (run_id, position),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

-- Ranked entries produced by a run
CREATE TABLE IF NOT EXISTS run_entries (
    run_id INTEGER NOT NULL,
    rank INTEGER NOT NULL,
    token TEXT NOT NULL,
    count INTEGER NOT NULL,
    PRIMARY KEY (run_id, rank),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);
`
