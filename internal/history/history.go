// SPDX-License-Identifier: MIT

// Package history records refresh runs and per-channel outcomes in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	xglog "github.com/youngsadsatan/ssYouTube/internal/log"
)

// Channel outcomes.
const (
	OutcomeResolved     = "resolved"
	OutcomeFailedLive   = "failed_live"
	OutcomeFailedStream = "failed_stream"
)

// Run outcomes.
const (
	RunSuccess  = "success"
	RunFailure  = "failure"
	RunCanceled = "canceled"
)

// Run is one refresh and the channels it processed.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    string
	Resolved   int
	Failed     int
	Channels   []ChannelOutcome
}

// ChannelOutcome is the result for one channel in a run.
type ChannelOutcome struct {
	Category  string
	Handle    string
	Outcome   string
	WatchID   string
	MediaURL  string
	LiveVia   string
	StreamVia string
	Error     string
}

// Store persists runs.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path. A database that fails
// its integrity check is moved aside and replaced by an empty one.
func Open(ctx context.Context, path string) (*Store, error) {
	db, issues, err := openChecked(ctx, path)
	if err != nil || issues != nil {
		if _, statErr := os.Stat(path); statErr != nil {
			if err == nil {
				err = fmt.Errorf("history: integrity check: %v", issues)
			}
			return nil, err
		}
		dest, qerr := quarantine(path, time.Now())
		if qerr != nil {
			return nil, fmt.Errorf("history: quarantine corrupt database: %w", qerr)
		}
		xglog.FromContext(ctx).Warn().
			Str(xglog.FieldEvent, "history.quarantined").
			Str(xglog.FieldPath, dest).
			Strs("issues", issues).
			AnErr("check_error", err).
			Msg("history database failed integrity check, starting fresh")
		if db, err = openDB(ctx, path); err != nil {
			return nil, err
		}
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return s, nil
}

func openChecked(ctx context.Context, path string) (*sql.DB, []string, error) {
	db, err := openDB(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	issues, err := quickCheck(ctx, db)
	if err != nil || issues != nil {
		_ = db.Close()
		return nil, issues, err
	}
	return db, nil, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		outcome TEXT NOT NULL CHECK(outcome IN ('success', 'failure', 'canceled')),
		resolved INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS channel_outcomes (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		category TEXT NOT NULL,
		handle TEXT NOT NULL,
		outcome TEXT NOT NULL CHECK(outcome IN ('resolved', 'failed_live', 'failed_stream')),
		watch_id TEXT NOT NULL DEFAULT '',
		media_url TEXT NOT NULL DEFAULT '',
		live_via TEXT NOT NULL DEFAULT '',
		stream_via TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, category, handle)
	);

	CREATE INDEX IF NOT EXISTS idx_channel_outcomes_handle ON channel_outcomes(category, handle);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Record stores a run and its channel outcomes atomically.
func (s *Store) Record(ctx context.Context, run Run) (err error) {
	if run.ID == "" {
		return errors.New("history: run id is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, started_at, finished_at, outcome, resolved, failed)
	VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt), run.Outcome, run.Resolved, run.Failed)
	if err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO channel_outcomes (run_id, category, handle, outcome, watch_id, media_url, live_via, stream_via, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, category, handle) DO UPDATE SET
		outcome = excluded.outcome,
		watch_id = excluded.watch_id,
		media_url = excluded.media_url,
		live_via = excluded.live_via,
		stream_via = excluded.stream_via,
		error = excluded.error
	`)
	if err != nil {
		return fmt.Errorf("history: prepare outcome insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range run.Channels {
		if _, err = stmt.ExecContext(ctx, run.ID, c.Category, c.Handle, c.Outcome,
			c.WatchID, c.MediaURL, c.LiveVia, c.StreamVia, c.Error); err != nil {
			return fmt.Errorf("history: insert outcome %s/%s: %w", c.Category, c.Handle, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("history: commit: %w", err)
	}
	return nil
}

// ConsecutiveFailures counts the most recent runs in which the channel
// failed, stopping at the latest run where it resolved.
func (s *Store) ConsecutiveFailures(ctx context.Context, category, handle string) (int, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT c.outcome
	FROM channel_outcomes c
	JOIN runs r ON r.id = c.run_id
	WHERE c.category = ? AND c.handle = ?
	ORDER BY r.started_at DESC, r.id DESC
	`, category, handle)
	if err != nil {
		return 0, fmt.Errorf("history: query outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	n := 0
	for rows.Next() {
		var outcome string
		if err := rows.Scan(&outcome); err != nil {
			return 0, err
		}
		if outcome == OutcomeResolved {
			break
		}
		n++
	}
	return n, rows.Err()
}

// Recent returns the latest runs, newest first, without channel details.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, started_at, finished_at, outcome, resolved, failed
	FROM runs
	ORDER BY started_at DESC, id DESC
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Outcome, &r.Resolved, &r.Failed); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		r.FinishedAt, _ = time.Parse(timeLayout, finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// timeLayout is fixed width so stored timestamps order lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
