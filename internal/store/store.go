// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists pipeline runs in a local SQLite database:
// one row per run holding the assembled report, plus the run's merged
// corpus indexed for full-text review search.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/review-radar/pkg/types"
)

// defaultMaxResults bounds retrieval when the caller does not.
const defaultMaxResults = 50

// Store manages the run database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the run database at cfg.Path and ensures the
// schema exists.
func Open(cfg types.StoreConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			generated_at TEXT NOT NULL,
			window_days INTEGER NOT NULL,
			total_reviews INTEGER NOT NULL,
			average_rating REAL NOT NULL,
			backend_used TEXT,
			report TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS reviews (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			id TEXT NOT NULL,
			source TEXT NOT NULL,
			rating INTEGER NOT NULL,
			title TEXT,
			text TEXT NOT NULL,
			author TEXT,
			posted_at TEXT NOT NULL,
			app_version TEXT,
			developer_reply TEXT,
			reply_at TEXT,
			vote_count INTEGER NOT NULL DEFAULT 0,
			sentiment_score REAL NOT NULL DEFAULT 0,
			sentiment TEXT,
			UNIQUE(run_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_run_id ON reviews(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_rating ON reviews(rating)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_sentiment ON reviews(sentiment)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='reviews_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE reviews_fts USING fts5(text, content=reviews, content_rowid=rowid)`,
			`CREATE TRIGGER reviews_ai AFTER INSERT ON reviews BEGIN
				INSERT INTO reviews_fts(rowid, text) VALUES (new.rowid, new.text);
			END`,
			`CREATE TRIGGER reviews_ad AFTER DELETE ON reviews BEGIN
				INSERT INTO reviews_fts(reviews_fts, rowid, text) VALUES('delete', old.rowid, old.text);
			END`,
			`CREATE TRIGGER reviews_au AFTER UPDATE ON reviews BEGIN
				INSERT INTO reviews_fts(reviews_fts, rowid, text) VALUES('delete', old.rowid, old.text);
				INSERT INTO reviews_fts(rowid, text) VALUES (new.rowid, new.text);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// SaveRun records one pipeline run: the report and every review in its
// corpus, atomically. It returns the new run's id.
func (s *Store) SaveRun(ctx context.Context, rep types.SummaryReport, reviews []types.CanonicalReview) (int64, error) {
	reportJSON, err := json.Marshal(rep)
	if err != nil {
		return 0, fmt.Errorf("marshaling report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (generated_at, window_days, total_reviews, average_rating, backend_used, report)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rep.GeneratedAt.UTC().Format(time.RFC3339Nano), rep.WindowDays,
		rep.TotalReviews, rep.AverageRating, rep.BackendUsed, string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO reviews (run_id, id, source, rating, title, text, author, posted_at,
			app_version, developer_reply, reply_at, vote_count, sentiment_score, sentiment)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range reviews {
		_, err := stmt.ExecContext(ctx,
			runID, r.ID, string(r.Source), r.Rating, r.Title, r.Text, r.Author,
			r.Timestamp.UTC().Format(time.RFC3339Nano),
			r.AppVersion, r.DeveloperReply, nullableTime(r.ReplyTimestamp),
			r.VoteCount, r.SentimentScore, string(r.SentimentCategory),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting review %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// LatestReport returns the most recently saved report and its run id.
func (s *Store) LatestReport(ctx context.Context) (types.SummaryReport, int64, error) {
	var (
		id         int64
		reportJSON string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, report FROM runs ORDER BY id DESC LIMIT 1`,
	).Scan(&id, &reportJSON)
	if err == sql.ErrNoRows {
		return types.SummaryReport{}, 0, fmt.Errorf("no runs recorded yet")
	}
	if err != nil {
		return types.SummaryReport{}, 0, fmt.Errorf("loading latest run: %w", err)
	}
	return decodeReport(reportJSON, id)
}

// Report returns the report saved for a specific run.
func (s *Store) Report(ctx context.Context, runID int64) (types.SummaryReport, int64, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT report FROM runs WHERE id = ?`, runID,
	).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return types.SummaryReport{}, 0, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return types.SummaryReport{}, 0, fmt.Errorf("loading run %d: %w", runID, err)
	}
	return decodeReport(reportJSON, runID)
}

func decodeReport(reportJSON string, id int64) (types.SummaryReport, int64, error) {
	var rep types.SummaryReport
	if err := json.Unmarshal([]byte(reportJSON), &rep); err != nil {
		return types.SummaryReport{}, 0, fmt.Errorf("parsing stored report: %w", err)
	}
	return rep, id, nil
}

// RunSummary is one row of the run history listing.
type RunSummary struct {
	ID            int64     `json:"id" yaml:"id"`
	GeneratedAt   time.Time `json:"generated_at" yaml:"generated_at"`
	WindowDays    int       `json:"window_days" yaml:"window_days"`
	TotalReviews  int       `json:"total_reviews" yaml:"total_reviews"`
	AverageRating float64   `json:"average_rating" yaml:"average_rating"`
	BackendUsed   string    `json:"backend_used" yaml:"backend_used"`
}

// ListRuns returns run history, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = defaultMaxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, generated_at, window_days, total_reviews, average_rating, backend_used
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			rs          RunSummary
			generatedAt string
			backend     sql.NullString
		)
		if err := rows.Scan(&rs.ID, &generatedAt, &rs.WindowDays, &rs.TotalReviews, &rs.AverageRating, &backend); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		rs.GeneratedAt, _ = time.Parse(time.RFC3339Nano, generatedAt)
		rs.BackendUsed = backend.String
		out = append(out, rs)
	}
	return out, rows.Err()
}

// nullableTime encodes a timestamp column that may be absent.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
