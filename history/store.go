// Package history keeps every audit in a SQLite database so a site's score
// can be followed over time.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/seo-optimizer/seoaudit/analyzer"
)

// FileName is the database file created inside the data directory.
const FileName = "history.db"

// timeLayout has a fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one stored audit.
type Entry struct {
	ID        int64                 `json:"id"`
	URL       string                `json:"url"`
	SiteName  string                `json:"site_name"`
	Score     int                   `json:"score"`
	Features  analyzer.PageFeatures `json:"features"`
	CreatedAt time.Time             `json:"created_at"`
}

// Store is a SQLite-backed audit history.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the history database in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, FileName)+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS audits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		site_name TEXT NOT NULL,
		score INTEGER NOT NULL,
		features_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audits_url ON audits(url, created_at);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save appends an audit of f scored score under siteName and returns the new
// entry id.
func (s *Store) Save(ctx context.Context, siteName string, f analyzer.PageFeatures, score int) (int64, error) {
	featuresJSON, err := json.Marshal(f)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize features: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
	INSERT INTO audits (url, site_name, score, features_json, created_at)
	VALUES (?, ?, ?, ?, ?)
	`,
		f.URL,
		siteName,
		score,
		string(featuresJSON),
		s.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert audit: %w", err)
	}

	return result.LastInsertId()
}

// List returns the stored audits of url, newest first. limit <= 0 returns
// all of them.
func (s *Store) List(ctx context.Context, url string, limit int) ([]Entry, error) {
	query := `
	SELECT id, url, site_name, score, features_json, created_at
	FROM audits
	WHERE url = ?
	ORDER BY created_at DESC, id DESC
	`
	args := []any{url}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audits: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e            Entry
			featuresJSON string
			createdAt    string
		)
		if err := rows.Scan(&e.ID, &e.URL, &e.SiteName, &e.Score, &featuresJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}
		if err := json.Unmarshal([]byte(featuresJSON), &e.Features); err != nil {
			return nil, fmt.Errorf("failed to parse features of audit %d: %w", e.ID, err)
		}
		e.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Latest returns the newest audit of url, or nil when none is stored.
func (s *Store) Latest(ctx context.Context, url string) (*Entry, error) {
	entries, err := s.List(ctx, url, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// Count returns the number of stored audits.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audits").Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count audits: %w", err)
	}
	return n, nil
}
