package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/valpere/vidlingo/internal"
)

// Store is the SQLite search log.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS searches (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		query TEXT NOT NULL,
		query_label TEXT NOT NULL DEFAULT '',
		direct_count INTEGER NOT NULL DEFAULT 0,
		direct_error TEXT NOT NULL DEFAULT '',
		intelligent_error TEXT NOT NULL DEFAULT '',
		final_count INTEGER NOT NULL DEFAULT 0,
		surfaced_error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_searches_created ON searches(created_at);
	CREATE INDEX IF NOT EXISTS idx_searches_user ON searches(user_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveSearch records a settled search.
func (s *Store) SaveSearch(ctx context.Context, rec internal.SearchRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO searches (id, user_id, query, query_label, direct_count, direct_error, intelligent_error, final_count, surfaced_error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Query, rec.QueryLabel, rec.DirectCount, rec.DirectError,
		rec.IntelligentError, rec.FinalCount, rec.SurfacedError, rec.Timestamp)
	return err
}

// ListSearches returns the most recent searches first. limit <= 0 means all.
func (s *Store) ListSearches(ctx context.Context, limit int) ([]internal.SearchRecord, error) {
	query := `SELECT id, user_id, query, query_label, direct_count, direct_error, intelligent_error, final_count, surfaced_error, created_at
		FROM searches ORDER BY created_at DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []internal.SearchRecord
	for rows.Next() {
		var r internal.SearchRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.Query, &r.QueryLabel, &r.DirectCount, &r.DirectError,
			&r.IntelligentError, &r.FinalCount, &r.SurfacedError, &r.Timestamp); err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// Stats summarises the search log.
type Stats struct {
	TotalSearches       int
	Translated          int
	DirectFailures      int
	IntelligentFailures int
	SurfacedErrors      int
	EmptyResults        int
}

// Stats returns summary statistics for the search log.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN query_label <> '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN direct_error <> '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN intelligent_error <> '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN surfaced_error <> '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN final_count = 0 THEN 1 ELSE 0 END), 0)
		FROM searches`).Scan(
		&stats.TotalSearches,
		&stats.Translated,
		&stats.DirectFailures,
		&stats.IntelligentFailures,
		&stats.SurfacedErrors,
		&stats.EmptyResults,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// DeleteSearch removes a search by ID.
func (s *Store) DeleteSearch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM searches WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("search not found: %s", id)
	}
	return nil
}

// ClearSearches removes every search and returns how many were deleted.
func (s *Store) ClearSearches(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM searches`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}
