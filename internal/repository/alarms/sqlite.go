package alarms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/oshokin/alarm-assistant/internal/domain/alarm"
)

// SQLiteRepository implements Repository on a SQLite database file.
type SQLiteRepository struct {
	db *sql.DB
}

// migrations are applied in order on every start; each statement is idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS alarms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL,
		time TEXT NOT NULL,
		date TEXT,
		repeat TEXT NOT NULL DEFAULT 'none',
		status TEXT NOT NULL DEFAULT 'active',
		next_trigger DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alarms_due ON alarms(status, next_trigger)`,
	`CREATE INDEX IF NOT EXISTS idx_alarms_label ON alarms(label)`,
}

// NewSQLiteRepository opens (or creates) the database at dsn and applies
// migrations.
func NewSQLiteRepository(dsn string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// In-memory SQLite gives every connection its own database.
	// Keep a single connection so the schema survives across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	for _, m := range migrations {
		if _, err = db.Exec(m); err != nil {
			db.Close()

			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// alarmColumns is the column list shared by every alarm query.
const alarmColumns = "id, label, time, date, repeat, status, next_trigger, created_at"

// Add persists a new alarm and fills in its assigned identifier.
func (r *SQLiteRepository) Add(ctx context.Context, a *alarm.Alarm) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO alarms (label, time, date, repeat, status, next_trigger, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Label, a.Time, nullString(a.Date), string(a.Repeat), string(a.Status), a.NextTrigger, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert alarm: %w", err)
	}

	a.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}

	return nil
}

// List returns all alarms, newest first.
func (r *SQLiteRepository) List(ctx context.Context) ([]*alarm.Alarm, error) {
	return r.query(ctx,
		`SELECT `+alarmColumns+` FROM alarms ORDER BY created_at DESC, id DESC`)
}

// GetByID returns the alarm with the given identifier, or nil when absent.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*alarm.Alarm, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+alarmColumns+` FROM alarms WHERE id = ?`, id)

	a, err := scanAlarm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get alarm %d: %w", id, err)
	}

	return a, nil
}

// Update overwrites the stored alarm and reports whether it existed.
func (r *SQLiteRepository) Update(ctx context.Context, a *alarm.Alarm) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE alarms
		 SET label = ?, time = ?, date = ?, repeat = ?, status = ?, next_trigger = ?
		 WHERE id = ?`,
		a.Label, a.Time, nullString(a.Date), string(a.Repeat), string(a.Status), a.NextTrigger, a.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update alarm %d: %w", a.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// DeleteByID removes the alarm and reports whether it existed.
func (r *SQLiteRepository) DeleteByID(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM alarms WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete alarm %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// FindByLabel returns all alarms with the given label, newest first.
func (r *SQLiteRepository) FindByLabel(ctx context.Context, label string) ([]*alarm.Alarm, error) {
	return r.query(ctx,
		`SELECT `+alarmColumns+` FROM alarms WHERE label = ? ORDER BY created_at DESC, id DESC`,
		label)
}

// DeleteByLabel removes all alarms with the given label.
func (r *SQLiteRepository) DeleteByLabel(ctx context.Context, label string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM alarms WHERE label = ?`, label)
	if err != nil {
		return 0, fmt.Errorf("failed to delete alarms labelled %q: %w", label, err)
	}

	return result.RowsAffected()
}

// DueBefore returns active alarms whose next trigger is at or before now,
// soonest first.
func (r *SQLiteRepository) DueBefore(ctx context.Context, now time.Time) ([]*alarm.Alarm, error) {
	return r.query(ctx,
		`SELECT `+alarmColumns+` FROM alarms
		 WHERE status = ? AND next_trigger <= ?
		 ORDER BY next_trigger ASC`,
		string(alarm.StatusActive), now)
}

// SetNextTrigger moves an alarm's next trigger instant.
func (r *SQLiteRepository) SetNextTrigger(ctx context.Context, id int64, next time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE alarms SET next_trigger = ? WHERE id = ?`, next, id)
	if err != nil {
		return fmt.Errorf("failed to reschedule alarm %d: %w", id, err)
	}

	return nil
}

// MarkTriggered retires a one-shot alarm after it fires.
func (r *SQLiteRepository) MarkTriggered(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE alarms SET status = ? WHERE id = ?`, string(alarm.StatusTriggered), id)
	if err != nil {
		return fmt.Errorf("failed to mark alarm %d triggered: %w", id, err)
	}

	return nil
}

// query runs a SELECT over the alarm columns and scans all rows.
func (r *SQLiteRepository) query(ctx context.Context, q string, args ...any) ([]*alarm.Alarm, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alarms: %w", err)
	}
	defer rows.Close()

	var result []*alarm.Alarm

	for rows.Next() {
		a, err := scanAlarm(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alarm: %w", err)
		}

		result = append(result, a)
	}

	return result, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanAlarm reads one alarm row.
func scanAlarm(row rowScanner) (*alarm.Alarm, error) {
	var (
		a      alarm.Alarm
		date   sql.NullString
		repeat string
		status string
	)

	err := row.Scan(&a.ID, &a.Label, &a.Time, &date, &repeat, &status, &a.NextTrigger, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	if date.Valid {
		a.Date = date.String
	}

	a.Repeat = alarm.RepeatMode(repeat)
	a.Status = alarm.Status(status)

	return &a, nil
}

// nullString maps an empty string to SQL NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}

	return sql.NullString{String: s, Valid: true}
}
