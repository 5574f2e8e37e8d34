// Package history keeps an auditable record of every notification the
// service actually sent. The absence of an expected notification is the only
// user-visible failure symptom, so the send log (together with the persisted
// last-sent timestamp) is the debugging surface.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"umbrella/internal/types"
)

// Entry is one sent notification.
type Entry struct {
	ID      int64     `json:"id"`
	CycleID string    `json:"cycle_id"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

// Recorder persists and queries sent notifications. It shares the state
// database; the sent_notifications table is created by the state schema.
type Recorder struct {
	db *sql.DB
}

// NewRecorder creates a Recorder over the shared state database handle.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// Record appends a sent notification to the log.
func (r *Recorder) Record(ctx context.Context, cycleID string, n types.Notification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sent_notifications (cycle_id, title, body, sent_at) VALUES (?, ?, ?, ?)`,
		cycleID, n.Title, n.Body, n.SentAt.UnixMilli(),
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeStateStore, "recording sent notification", err)
	}
	return nil
}

// Recent returns the most recent entries, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, cycle_id, title, body, sent_at FROM sent_notifications ORDER BY sent_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeStateStore, "listing sent notifications", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// olderThan returns all entries sent strictly before the cutoff, oldest
// first, for archival.
func (r *Recorder) olderThan(ctx context.Context, cutoff time.Time) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, cycle_id, title, body, sent_at FROM sent_notifications WHERE sent_at < ? ORDER BY sent_at ASC, id ASC`,
		cutoff.UnixMilli(),
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeStateStore, "listing stale notifications", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// deleteOlderThan removes archived rows. Returns the number deleted.
func (r *Recorder) deleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sent_notifications WHERE sent_at < ?`,
		cutoff.UnixMilli(),
	)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeStateStore, "pruning sent notifications", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading pruned row count: %w", err)
	}
	return n, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var sentAtMs int64
		if err := rows.Scan(&e.ID, &e.CycleID, &e.Title, &e.Body, &sentAtMs); err != nil {
			return nil, types.NewAppError(types.ErrCodeStateStore, "scanning notification row", err)
		}
		e.SentAt = time.UnixMilli(sentAtMs).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeStateStore, "iterating notification rows", err)
	}
	return entries, nil
}
