// Package sqlite provides a SQLite-backed implementation of the alarm store
// port.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/ewilliams-labs/reveille/internal/core/domain"
	"github.com/ewilliams-labs/reveille/internal/core/ports"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
)

// Adapter implements the alarm store port for SQLite. Save replaces the full
// set inside one transaction; a mutex serializes Load/Save on the instance.
type Adapter struct {
	db *sql.DB
	mu sync.Mutex
}

var _ ports.AlarmStore = (*Adapter)(nil)

// NewAdapter opens the database and runs the schema migration.
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}
	if err := adapter.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully.
func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) Load(ctx context.Context) ([]domain.Alarm, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rows, err := a.db.QueryContext(ctx, `
		SELECT id, label, hour, minute, second, timezone, repeat_days,
			start_date, music_source, music_resource, tone_frequency_hz,
			tone_duration_seconds, music_extra, enabled, volume
		FROM alarms
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, ports.StorageError{Op: "load", Err: err}
	}
	defer rows.Close()

	var alarms []domain.Alarm
	for rows.Next() {
		var (
			alarm      domain.Alarm
			repeatDays string
			startDate  sql.NullString
			resource   sql.NullString
			extra      sql.NullString
		)
		if err := rows.Scan(
			&alarm.ID,
			&alarm.Label,
			&alarm.Hour,
			&alarm.Minute,
			&alarm.Second,
			&alarm.Timezone,
			&repeatDays,
			&startDate,
			&alarm.Music.Source,
			&resource,
			&alarm.Music.ToneFrequencyHz,
			&alarm.Music.ToneDurationSeconds,
			&extra,
			&alarm.Enabled,
			&alarm.Volume,
		); err != nil {
			return nil, ports.StorageError{Op: "load", Err: fmt.Errorf("failed to scan alarm: %w", err)}
		}
		if resource.Valid {
			alarm.Music.Resource = resource.String
		}
		if repeatDays != "" {
			if err := json.Unmarshal([]byte(repeatDays), &alarm.RepeatDays); err != nil {
				return nil, ports.StorageError{Op: "load", Err: fmt.Errorf("failed to decode repeat days for %s: %w", alarm.ID, err)}
			}
		}
		if startDate.Valid && startDate.String != "" {
			date, err := domain.ParseDate(startDate.String)
			if err != nil {
				return nil, ports.StorageError{Op: "load", Err: err}
			}
			alarm.StartDate = date
		}
		if extra.Valid && extra.String != "" {
			if err := json.Unmarshal([]byte(extra.String), &alarm.Music.Extra); err != nil {
				return nil, ports.StorageError{Op: "load", Err: fmt.Errorf("failed to decode music extra for %s: %w", alarm.ID, err)}
			}
		}
		alarm, err := domain.NewAlarm(alarm)
		if err != nil {
			return nil, ports.StorageError{Op: "load", Err: err}
		}
		alarms = append(alarms, alarm)
	}
	if err := rows.Err(); err != nil {
		return nil, ports.StorageError{Op: "load", Err: err}
	}
	return alarms, nil
}

func (a *Adapter) Save(ctx context.Context, alarms []domain.Alarm) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return ports.StorageError{Op: "save", Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}
	defer tx.Rollback() // Safety net: auto-rollback if we error/panic before commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM alarms"); err != nil {
		return ports.StorageError{Op: "save", Err: fmt.Errorf("failed to clear alarms: %w", err)}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO alarms (
			id, label, hour, minute, second, timezone, repeat_days,
			start_date, music_source, music_resource, tone_frequency_hz,
			tone_duration_seconds, music_extra, enabled, volume
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return ports.StorageError{Op: "save", Err: err}
	}
	defer stmt.Close()

	for _, alarm := range alarms {
		repeatDays, err := json.Marshal(alarm.RepeatDays)
		if err != nil {
			return ports.StorageError{Op: "save", Err: err}
		}
		var extra []byte
		if len(alarm.Music.Extra) > 0 {
			extra, err = json.Marshal(alarm.Music.Extra)
			if err != nil {
				return ports.StorageError{Op: "save", Err: err}
			}
		}
		var startDate string
		if !alarm.StartDate.IsZero() {
			startDate = alarm.StartDate.String()
		}
		if _, err := stmt.ExecContext(
			ctx,
			alarm.ID,
			alarm.Label,
			alarm.Hour,
			alarm.Minute,
			alarm.Second,
			alarm.Timezone,
			string(repeatDays),
			startDate,
			alarm.Music.Source,
			alarm.Music.Resource,
			alarm.Music.ToneFrequencyHz,
			alarm.Music.ToneDurationSeconds,
			string(extra),
			alarm.Enabled,
			alarm.Volume,
		); err != nil {
			return ports.StorageError{Op: "save", Err: fmt.Errorf("failed to save alarm %s: %w", alarm.ID, err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return ports.StorageError{Op: "save", Err: fmt.Errorf("transaction commit failed: %w", err)}
	}
	return nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS alarms (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		hour INTEGER NOT NULL,
		minute INTEGER NOT NULL,
		second INTEGER NOT NULL DEFAULT 0,
		timezone TEXT NOT NULL DEFAULT 'UTC',
		repeat_days TEXT NOT NULL DEFAULT '[]',
		start_date TEXT,
		music_source TEXT NOT NULL DEFAULT 'tone',
		music_resource TEXT,
		tone_frequency_hz INTEGER NOT NULL DEFAULT 440,
		tone_duration_seconds INTEGER NOT NULL DEFAULT 30,
		music_extra TEXT,
		enabled INTEGER NOT NULL DEFAULT 1,
		volume REAL NOT NULL DEFAULT 1.0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := a.db.Exec(query); err != nil {
		return err
	}

	if _, err := a.db.Exec("ALTER TABLE alarms ADD COLUMN music_extra TEXT"); err != nil {
		if !isDuplicateColumnError(err) {
			return err
		}
	}
	if _, err := a.db.Exec("ALTER TABLE alarms ADD COLUMN volume REAL NOT NULL DEFAULT 1.0"); err != nil {
		if !isDuplicateColumnError(err) {
			return err
		}
	}

	return nil
}

func isDuplicateColumnError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "duplicate column") || strings.Contains(err.Error(), "already exists"))
}
