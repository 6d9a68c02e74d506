package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/app-bouncer/internal/persistence"
)

// LogRepository implements persistence.LogRepository.
type LogRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewLogRepository creates a request log repository bound to pool.
func NewLogRepository(pool *ConnectionPool) *LogRepository {
	return &LogRepository{pool: pool, helper: NewQueryHelper(pool), mapper: NewErrorMapper()}
}

// AppendLogEntry inserts a decided request.
func (r *LogRepository) AppendLogEntry(ctx context.Context, entry persistence.LogEntry) error {
	const query = `INSERT INTO request_log (user_id, query, answer, date_time) VALUES (?, ?, ?, ?)`
	if _, err := r.helper.Exec(ctx, query, entry.UserID, entry.Query, entry.Answer, persistence.FormatTimestamp(entry.DateTime)); err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// ListLogEntries returns entries within [from, to] in chronological order.
func (r *LogRepository) ListLogEntries(ctx context.Context, userID string, from, to time.Time) ([]persistence.LogEntry, error) {
	const query = `
		SELECT user_id, query, answer, date_time
		FROM request_log
		WHERE user_id = ? AND date_time >= ? AND date_time <= ?
		ORDER BY date_time ASC, seq ASC
	`
	rows, err := r.helper.Query(ctx, query, userID, persistence.FormatTimestamp(from), persistence.FormatTimestamp(to))
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []persistence.LogEntry
	for rows.Next() {
		entry, err := scanLogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return entries, nil
}

// LatestLogEntry returns the most recent entry of the user.
func (r *LogRepository) LatestLogEntry(ctx context.Context, userID string) (persistence.LogEntry, error) {
	const query = `
		SELECT user_id, query, answer, date_time
		FROM request_log
		WHERE user_id = ?
		ORDER BY date_time DESC, seq DESC
		LIMIT 1
	`
	entry, err := scanLogEntry(r.helper.QueryRow(ctx, query, userID))
	if err != nil {
		return persistence.LogEntry{}, r.mapper.MapError(err)
	}
	return entry, nil
}

// CountLogEntries counts entries within [from, to).
func (r *LogRepository) CountLogEntries(ctx context.Context, userID string, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM request_log WHERE user_id = ? AND date_time >= ? AND date_time < ?`
	var count int
	if err := r.helper.QueryRow(ctx, query, userID, persistence.FormatTimestamp(from), persistence.FormatTimestamp(to)).Scan(&count); err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

// DeleteLogEntries removes the user's whole request log in one transaction.
func (r *LogRepository) DeleteLogEntries(ctx context.Context, userID string) (int64, error) {
	var removed int64
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		res, err := r.helper.ExecTx(ctx, tx, `DELETE FROM request_log WHERE user_id = ?`, userID)
		if err != nil {
			return r.mapper.MapError(err)
		}
		removed, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlstore: rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLogEntry(row rowScanner) (persistence.LogEntry, error) {
	var (
		entry    persistence.LogEntry
		dateTime string
	)
	if err := row.Scan(&entry.UserID, &entry.Query, &entry.Answer, &dateTime); err != nil {
		return persistence.LogEntry{}, err
	}
	t, err := persistence.ParseTimestamp(dateTime)
	if err != nil {
		return persistence.LogEntry{}, fmt.Errorf("sqlstore: parse log time: %w", err)
	}
	entry.DateTime = t
	return entry, nil
}
