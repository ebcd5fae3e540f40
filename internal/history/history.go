// Package history keeps a local sqlite log of persistence operations.
// Recording is best-effort: the engine logs and moves on if a row cannot
// be written, so history never fails a save or load.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Op kinds recorded in the history log.
const (
	OpSave   = "save"
	OpLoad   = "load"
	OpDelete = "delete"
	OpExport = "export"
	OpImport = "import"
)

// Entry is one recorded operation.
type Entry struct {
	ID          int64
	OperationID string
	Kind        string
	SlotID      string
	Success     bool
	DurationMS  int64
	PayloadSize int64
	Error       string
	CreatedAt   time.Time
}

// SlotStats summarizes recorded operations for one slot.
type SlotStats struct {
	SlotID    string
	Saves     int
	Loads     int
	Failures  int
	LastSaved time.Time
}

// Store wraps the sqlite history database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database and its schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// sqlite handles one writer; keep the pool small.
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(1 * time.Minute)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS operations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		operation_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		slot_id TEXT NOT NULL,
		success INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		payload_size INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_operations_slot ON operations(slot_id);
	CREATE INDEX IF NOT EXISTS idx_operations_created ON operations(created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return nil
}

// Record inserts one operation row.
func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO operations (operation_id, kind, slot_id, success, duration_ms, payload_size, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.OperationID, e.Kind, e.SlotID, boolToInt(e.Success), e.DurationMS, e.PayloadSize, e.Error, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record operation: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, operation_id, kind, slot_id, success, duration_ms, payload_size, error, created_at
		FROM operations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var success int
		if err := rows.Scan(&e.ID, &e.OperationID, &e.Kind, &e.SlotID, &success, &e.DurationMS, &e.PayloadSize, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Success = success != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// StatsForSlot aggregates recorded operations for a slot.
func (s *Store) StatsForSlot(ctx context.Context, slotID string) (*SlotStats, error) {
	stats := &SlotStats{SlotID: slotID}
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN kind = ? AND success = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = ? AND success = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0)
		FROM operations WHERE slot_id = ?`,
		OpSave, OpLoad, slotID)
	if err := row.Scan(&stats.Saves, &stats.Loads, &stats.Failures); err != nil {
		return nil, fmt.Errorf("failed to aggregate slot stats: %w", err)
	}

	var lastSaved sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT created_at FROM operations
		WHERE slot_id = ? AND kind = ? AND success = 1
		ORDER BY id DESC LIMIT 1`, slotID, OpSave).Scan(&lastSaved)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read last save time: %w", err)
	}
	if lastSaved.Valid {
		stats.LastSaved = lastSaved.Time
	}
	return stats, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
