// Package history persists a record of every completed download, per source
// and calendar day.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS downloads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source TEXT NOT NULL,
    day TEXT NOT NULL,
    filename TEXT NOT NULL,
    title TEXT,
    image_url TEXT NOT NULL,
    downloaded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(source, day, filename)
);

CREATE INDEX IF NOT EXISTS idx_downloads_source_day ON downloads(source, day);
`

// Download is one recorded download.
type Download struct {
	ID           int64
	Source       string
	Day          time.Time
	Filename     string
	Title        string
	ImageURL     string
	DownloadedAt time.Time
}

// Store is a SQLite-backed download history.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

func Open(path string, logger *log.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores one completed download. Recording the same file for the
// same source and day again only refreshes the timestamp.
func (s *Store) Record(ctx context.Context, d Download) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO downloads (source, day, filename, title, image_url, downloaded_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(source, day, filename) DO UPDATE SET
            downloaded_at = excluded.downloaded_at`,
		d.Source, formatDay(d.Day), d.Filename, d.Title, d.ImageURL,
		formatTimestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("history: record download: %w", err)
	}
	return nil
}

// LookupDay returns the downloads recorded for one source on one day.
func (s *Store) LookupDay(ctx context.Context, source string, day time.Time) ([]Download, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, source, day, filename, title, image_url, downloaded_at
        FROM downloads WHERE source = ? AND day = ?
        ORDER BY id`,
		source, formatDay(day),
	)
	if err != nil {
		return nil, fmt.Errorf("history: query day: %w", err)
	}
	defer rows.Close()
	return scanDownloads(rows)
}

// Recent returns the newest downloads across all sources, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Download, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, source, day, filename, title, image_url, downloaded_at
        FROM downloads ORDER BY downloaded_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: query recent: %w", err)
	}
	defer rows.Close()
	return scanDownloads(rows)
}

func scanDownloads(rows *sql.Rows) ([]Download, error) {
	var downloads []Download
	for rows.Next() {
		var (
			d            Download
			day, fetched string
			title        sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Source, &day, &d.Filename, &title, &d.ImageURL, &fetched); err != nil {
			return nil, fmt.Errorf("history: scan row: %w", err)
		}
		d.Title = title.String
		if t, err := time.Parse("2006-01-02", day); err == nil {
			d.Day = t
		}
		if t, err := time.Parse("2006-01-02 15:04:05", fetched); err == nil {
			d.DownloadedAt = t
		}
		downloads = append(downloads, d)
	}
	return downloads, rows.Err()
}

func formatDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
