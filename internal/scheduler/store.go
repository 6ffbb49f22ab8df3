package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/watzon/holdoff/internal/database"
)

// Store persists scheduling records in the database, one row per key.
type Store struct {
	db *database.DB
}

func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// Get loads the record for a key. It returns (nil, nil) when no record
// exists yet; records are created lazily by Save.
func (s *Store) Get(ctx context.Context, key string) (*Record, error) {
	query := `
		SELECT key, last_requested_at, scheduled_for, last_executed_at,
		       last_outcome, last_error, retry_count, delay_ms, target_url, updated_at
		FROM _holdoff_schedules
		WHERE key = ?
	`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("getting scheduling record: %w", err)
	}

	return rec, nil
}

// Save upserts the record for rec.Key.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	rec.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO _holdoff_schedules (key, last_requested_at, scheduled_for, last_executed_at,
		                                last_outcome, last_error, retry_count, delay_ms, target_url, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			last_requested_at = excluded.last_requested_at,
			scheduled_for = excluded.scheduled_for,
			last_executed_at = excluded.last_executed_at,
			last_outcome = excluded.last_outcome,
			last_error = excluded.last_error,
			retry_count = excluded.retry_count,
			delay_ms = excluded.delay_ms,
			target_url = excluded.target_url,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.Key,
		nullTime(rec.LastRequestedAt),
		nullTime(rec.ScheduledFor),
		nullTime(rec.LastExecutedAt),
		nullString(string(rec.LastOutcome)),
		nullString(rec.LastError),
		rec.RetryCount,
		rec.DelayMs,
		nullString(rec.TargetURL),
		rec.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving scheduling record: %w", err)
	}

	return nil
}

// ListPending returns every record with a pending execution, ordered by due
// time. Used on startup to re-arm wake timers.
func (s *Store) ListPending(ctx context.Context) ([]*Record, error) {
	query := `
		SELECT key, last_requested_at, scheduled_for, last_executed_at,
		       last_outcome, last_error, retry_count, delay_ms, target_url, updated_at
		FROM _holdoff_schedules
		WHERE scheduled_for IS NOT NULL
		ORDER BY scheduled_for ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying pending schedules: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning scheduling record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scheduling records: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var lastRequested, scheduledFor, lastExecuted sql.NullString
	var outcome, lastError, targetURL sql.NullString
	var delayMs sql.NullInt64
	var updatedAt string

	err := row.Scan(
		&rec.Key,
		&lastRequested,
		&scheduledFor,
		&lastExecuted,
		&outcome,
		&lastError,
		&rec.RetryCount,
		&delayMs,
		&targetURL,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rec.LastRequestedAt, err = parseNullTime(lastRequested, "last_requested_at"); err != nil {
		return nil, err
	}
	if rec.ScheduledFor, err = parseNullTime(scheduledFor, "scheduled_for"); err != nil {
		return nil, err
	}
	if rec.LastExecutedAt, err = parseNullTime(lastExecuted, "last_executed_at"); err != nil {
		return nil, err
	}

	rec.LastOutcome = Outcome(outcome.String)
	rec.LastError = lastError.String
	rec.DelayMs = delayMs.Int64
	rec.TargetURL = targetURL.String

	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	rec.UpdatedAt = t

	return &rec, nil
}

func parseNullTime(v sql.NullString, column string) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", column, err)
	}
	return &t, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
