package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ffservice/internal/logging"
	"ffservice/internal/metrics"
)

// ErrCallNotFound is returned when FinishCall targets an unknown id.
var ErrCallNotFound = errors.New("call not found")

// MaxRecentCalls caps RecentCalls.
const MaxRecentCalls = 500

// BeginCall records the start of a call.
func (d *Database) BeginCall(ctx context.Context, id, peer string, startedAt time.Time) (err error) {
	start := time.Now()
	defer func() { recordQuery("begin_call", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx,
		`INSERT INTO calls (id, peer, state, started_at) VALUES (?, ?, ?, ?)`,
		id, peer, CallStateRunning, startedAt.UnixMilli(),
	)
	return err
}

// FinishCall stores the outcome of a call.
func (d *Database) FinishCall(ctx context.Context, c *Call) (err error) {
	start := time.Now()
	defer func() { recordQuery("finish_call", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	finished := time.Now()
	if c.FinishedAt != nil {
		finished = *c.FinishedAt
	}

	res, err := d.db.ExecContext(ctx, `
	UPDATE calls SET
		extension = ?,
		target_width = ?,
		target_height = ?,
		state = ?,
		error_kind = ?,
		error = ?,
		bytes_in = ?,
		bytes_out = ?,
		width = ?,
		height = ?,
		duration_seconds = ?,
		degraded = ?,
		finished_at = ?
	WHERE id = ?
	`,
		c.Extension, c.TargetWidth, c.TargetHeight, c.State, c.ErrorKind, c.Error,
		c.BytesIn, c.BytesOut, c.Width, c.Height, c.DurationSeconds, c.Degraded,
		finished.UnixMilli(), c.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCallNotFound
	}
	return nil
}

// RecentCalls returns up to limit calls, newest first.
func (d *Database) RecentCalls(ctx context.Context, limit int) (calls []Call, err error) {
	start := time.Now()
	defer func() { recordQuery("recent_calls", start, err) }()

	if limit <= 0 || limit > MaxRecentCalls {
		limit = MaxRecentCalls
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
	SELECT id, peer, extension, target_width, target_height, state, error_kind, error,
	       bytes_in, bytes_out, width, height, duration_seconds, degraded, started_at, finished_at
	FROM calls
	ORDER BY started_at DESC, rowid DESC
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close rows: %v", closeErr)
		}
	}()

	calls = make([]Call, 0, limit)
	for rows.Next() {
		var (
			c          Call
			startedAt  int64
			finishedAt sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.Peer, &c.Extension, &c.TargetWidth, &c.TargetHeight,
			&c.State, &c.ErrorKind, &c.Error, &c.BytesIn, &c.BytesOut, &c.Width, &c.Height,
			&c.DurationSeconds, &c.Degraded, &startedAt, &finishedAt); err != nil {
			return nil, err
		}
		c.StartedAt = time.UnixMilli(startedAt)
		if finishedAt.Valid {
			t := time.UnixMilli(finishedAt.Int64)
			c.FinishedAt = &t
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

// Stats returns aggregate totals over the whole history.
func (d *Database) Stats(ctx context.Context) (stats metrics.Stats, err error) {
	start := time.Now()
	defer func() { recordQuery("stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx, `
	SELECT COUNT(*),
	       COALESCE(SUM(state = 'done'), 0),
	       COALESCE(SUM(state = 'failed'), 0),
	       COALESCE(SUM(bytes_in), 0),
	       COALESCE(SUM(bytes_out), 0)
	FROM calls
	`).Scan(&stats.TotalCalls, &stats.DoneCalls, &stats.FailedCalls, &stats.BytesIn, &stats.BytesOut)
	return stats, err
}

// GetStats implements metrics.StatsProvider.
func (d *Database) GetStats() metrics.Stats {
	stats, err := d.Stats(context.Background())
	if err != nil {
		logging.Warn("Failed to collect call history stats: %v", err)
	}
	return stats
}

// MarkInterrupted fails calls left running by a previous process.
func (d *Database) MarkInterrupted(ctx context.Context) (n int64, err error) {
	start := time.Now()
	defer func() { recordQuery("mark_interrupted", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := d.db.ExecContext(ctx,
		`UPDATE calls SET state = ?, error_kind = 'internal', error = 'server restarted', finished_at = ? WHERE state = ?`,
		CallStateFailed, time.Now().UnixMilli(), CallStateRunning,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
