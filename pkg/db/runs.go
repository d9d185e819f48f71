package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned when a run ID has no row.
var ErrRunNotFound = errors.New("run not found")

// Run is the summary row of an archived run.
type Run struct {
	RunID          int64
	CreatedAt      time.Time
	TopK           int
	TableKind      string
	SourceFormat   string
	SourceCount    int
	TotalTokens    int
	DistinctTokens int
	ElapsedMicros  int64
}

// RunSource is one source of an archived run.
type RunSource struct {
	Position int
	Name     string
	Tokens   int
	Language string
}

// RunEntry is one ranked token of an archived run. Rank starts at 1.
type RunEntry struct {
	Rank  int
	Token string
	Count int
}

// RunRecord is everything written for a single run.
type RunRecord struct {
	Run     Run
	Sources []RunSource
	Entries []RunEntry
}

// InsertRun stores a run with its sources and ranking in one transaction and
// returns the new run_id.
func (db *DB) InsertRun(rec RunRecord) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // No-op after Commit

	r := rec.Run
	result, err := tx.Exec(`
		INSERT INTO runs (top_k, table_kind, source_format, source_count, total_tokens, distinct_tokens, elapsed_us)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.TopK, r.TableKind, r.SourceFormat, r.SourceCount, r.TotalTokens, r.DistinctTokens, r.ElapsedMicros)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	for _, s := range rec.Sources {
		_, err = tx.Exec(`
			INSERT INTO run_sources (run_id, position, name, tokens, language)
			VALUES (?, ?, ?, ?, ?)
		`, runID, s.Position, s.Name, s.Tokens, nullString(s.Language))
		if err != nil {
			return 0, fmt.Errorf("failed to insert run source %s: %w", s.Name, err)
		}
	}

	for _, e := range rec.Entries {
		_, err = tx.Exec(`
			INSERT INTO run_entries (run_id, rank, token, count)
			VALUES (?, ?, ?, ?)
		`, runID, e.Rank, e.Token, e.Count)
		if err != nil {
			return 0, fmt.Errorf("failed to insert run entry %q: %w", e.Token, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs first. limit <= 0 means no limit.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `
		SELECT run_id, created_at, top_k, table_kind, source_format, source_count, total_tokens, distinct_tokens, elapsed_us
		FROM runs
		ORDER BY run_id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.CreatedAt, &r.TopK, &r.TableKind, &r.SourceFormat,
			&r.SourceCount, &r.TotalTokens, &r.DistinctTokens, &r.ElapsedMicros); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns a single run summary.
func (db *DB) GetRun(runID int64) (*Run, error) {
	var r Run
	err := db.QueryRow(`
		SELECT run_id, created_at, top_k, table_kind, source_format, source_count, total_tokens, distinct_tokens, elapsed_us
		FROM runs WHERE run_id = ?
	`, runID).Scan(&r.RunID, &r.CreatedAt, &r.TopK, &r.TableKind, &r.SourceFormat,
		&r.SourceCount, &r.TotalTokens, &r.DistinctTokens, &r.ElapsedMicros)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %d: %w", runID, err)
	}
	return &r, nil
}

// GetRunEntries returns a run's ranking in rank order.
func (db *DB) GetRunEntries(runID int64) ([]RunEntry, error) {
	rows, err := db.Query(`
		SELECT rank, token, count FROM run_entries
		WHERE run_id = ?
		ORDER BY rank
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run entries: %w", err)
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		if err := rows.Scan(&e.Rank, &e.Token, &e.Count); err != nil {
			return nil, fmt.Errorf("failed to scan run entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetRunSources returns a run's sources in their original order.
func (db *DB) GetRunSources(runID int64) ([]RunSource, error) {
	rows, err := db.Query(`
		SELECT position, name, tokens, language FROM run_sources
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run sources: %w", err)
	}
	defer rows.Close()

	var sources []RunSource
	for rows.Next() {
		var s RunSource
		var lang sql.NullString
		if err := rows.Scan(&s.Position, &s.Name, &s.Tokens, &lang); err != nil {
			return nil, fmt.Errorf("failed to scan run source: %w", err)
		}
		s.Language = lang.String
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// DeleteRun removes a run and, through the foreign keys, its sources and
// entries.
func (db *DB) DeleteRun(runID int64) error {
	result, err := db.Exec("DELETE FROM runs WHERE run_id = ?", runID)
	if err != nil {
		return fmt.Errorf("failed to delete run %d: %w", runID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run %d: %w", runID, err)
	}
	if n == 0 {
		return fmt.Errorf("run %d: %w", runID, ErrRunNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
