package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SearchLog is the append-only store of completed queries
type SearchLog struct {
	db *sql.DB
}

// NewSearchLog opens/creates the searches database
func NewSearchLog(dbPath string) (*SearchLog, error) {
	db, err := openSQLite(dbPath)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS searches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id INTEGER NOT NULL,
		target_id INTEGER NOT NULL,
		duration REAL NOT NULL,
		degrees_count INTEGER,
		paths_count INTEGER NOT NULL,
		paths TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SearchLog{db: db}, nil
}

// AppendAuditRecord inserts one search record
func (l *SearchLog) AppendAuditRecord(ctx context.Context, rec SearchRecord) error {
	paths := rec.Paths
	if paths == nil {
		paths = PathSet{}
	}
	encoded, err := json.Marshal(paths)
	if err != nil {
		return fmt.Errorf("failed to encode paths: %w", err)
	}

	var degrees sql.NullInt64
	if d := paths.Degrees(); d >= 0 {
		degrees = sql.NullInt64{Int64: int64(d), Valid: true}
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO searches (source_id, target_id, duration, degrees_count, paths_count, paths)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.SourceID, rec.TargetID, rec.Duration, degrees, len(paths), string(encoded))
	if err != nil {
		return fmt.Errorf("failed to insert search: %w", err)
	}
	return nil
}

// MaxRecentLimit caps how many searches Recent may return
const MaxRecentLimit = 500

// Recent returns the newest search records, newest first
func (l *SearchLog) Recent(ctx context.Context, limit int) ([]SearchRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT source_id, target_id, duration, paths
		FROM searches
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load searches: %w", err)
	}
	defer rows.Close()

	var records []SearchRecord
	for rows.Next() {
		var rec SearchRecord
		var encoded string
		if err := rows.Scan(&rec.SourceID, &rec.TargetID, &rec.Duration, &encoded); err != nil {
			return nil, fmt.Errorf("failed to scan search: %w", err)
		}
		if err := json.Unmarshal([]byte(encoded), &rec.Paths); err != nil {
			return nil, fmt.Errorf("failed to decode paths: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating searches: %w", err)
	}

	return records, nil
}

// Close closes the database connection
func (l *SearchLog) Close() error {
	return l.db.Close()
}
