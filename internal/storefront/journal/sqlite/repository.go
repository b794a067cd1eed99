// Package sqlite stores the checkout journal in a SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmexdev/storefront/internal/pkg/sqlitedb"
	"github.com/jcmexdev/storefront/internal/storefront/journal"
)

var ErrNotFound = errors.New("journal: attempt not found")

// The table is append-only; the latest row per attempt_id is its state.
const schema = `
CREATE TABLE IF NOT EXISTS checkout_journal (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    attempt_id  TEXT    NOT NULL,
    user_id     TEXT    NOT NULL,
    status      TEXT    NOT NULL,
    order_id    INTEGER NOT NULL DEFAULT 0,
    total       TEXT,
    lines       INTEGER NOT NULL DEFAULT 0,
    error       TEXT,
    trace_id    TEXT    NOT NULL DEFAULT '',
    span_id     TEXT    NOT NULL DEFAULT '',
    recorded_at TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checkout_journal_attempt ON checkout_journal(attempt_id, id);
CREATE INDEX IF NOT EXISTS idx_checkout_journal_trace_id ON checkout_journal(trace_id);
`

var _ journal.Recorder = (*Repository)(nil)

type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the journal at path. The file may be shared with
// the sqlite kv store.
func Open(path string) (*Repository, error) {
	db, err := sqlitedb.Open(path, schema)
	if err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

// New wraps an existing handle without applying the schema.
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Save(ctx context.Context, e *journal.Entry) error {
	const q = `
		INSERT INTO checkout_journal
			(attempt_id, user_id, status, order_id, total, lines, error, trace_id, span_id, recorded_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		e.AttemptID,
		e.UserID,
		string(e.Status),
		e.OrderID,
		sqlitedb.NullableString(e.Total),
		e.Lines,
		sqlitedb.NullableString(e.Error),
		e.TraceID,
		e.SpanID,
		sqlitedb.FormatTime(e.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save journal entry for %q: %w", e.AttemptID, err)
	}
	return nil
}

const selectColumns = `
		SELECT attempt_id, user_id, status, order_id, COALESCE(total,''), lines,
		       COALESCE(error,''), trace_id, span_id, recorded_at
		FROM   checkout_journal`

// Attempt returns every row of one attempt, oldest first.
func (r *Repository) Attempt(ctx context.Context, attemptID string) ([]journal.Entry, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+`
		WHERE  attempt_id = ?
		ORDER  BY id`, attemptID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query attempt %q: %w", attemptID, err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, attemptID)
	}
	return entries, nil
}

// Recent returns the latest limit rows, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]journal.Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, selectColumns+`
		ORDER  BY id DESC
		LIMIT  ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query recent journal: %w", err)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]journal.Entry, error) {
	defer rows.Close()

	var entries []journal.Entry
	for rows.Next() {
		var (
			e          journal.Entry
			recordedAt string
		)
		if err := rows.Scan(
			&e.AttemptID,
			&e.UserID,
			&e.Status,
			&e.OrderID,
			&e.Total,
			&e.Lines,
			&e.Error,
			&e.TraceID,
			&e.SpanID,
			&recordedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scan journal entry: %w", err)
		}
		t, err := sqlitedb.ParseTime(recordedAt)
		if err != nil {
			return nil, err
		}
		e.RecordedAt = t
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate journal: %w", err)
	}
	return entries, nil
}
