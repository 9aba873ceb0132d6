package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// SQLiteRepository implements Repository using SQLite.
//
// It stores one row per observed change in the zone_state_history table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite zone history repository.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *SQLiteRepository: Repository instance ready for use
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// RecordChange inserts a new history row for a zone state change.
func (r *SQLiteRepository) RecordChange(ctx context.Context, deviceID string, zone int, key, value string) error {
	if deviceID == "" {
		return fmt.Errorf("device id is required")
	}
	if zone < 1 {
		return fmt.Errorf("zone must be positive")
	}
	if key == "" {
		return fmt.Errorf("state key is required")
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO zone_state_history (device_id, zone, state_key, state_value, recorded_at) VALUES (?, ?, ?, ?, ?)",
		deviceID,
		zone,
		key,
		value,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting zone state history: %w", err)
	}

	return nil
}

// GetHistory returns recent history entries for a zone, ordered newest first.
func (r *SQLiteRepository) GetHistory(ctx context.Context, deviceID string, zone int, limit int) ([]Entry, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device id is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, device_id, zone, state_key, state_value, recorded_at
		 FROM zone_state_history
		 WHERE device_id = ? AND zone = ?
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT ?`,
		deviceID,
		zone,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying zone state history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var recordedAt string

		if err := rows.Scan(&entry.ID, &entry.DeviceID, &entry.Zone, &entry.Key, &entry.Value, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning zone state history: %w", err)
		}

		timestamp, err := parseHistoryTimestamp(recordedAt)
		if err != nil {
			return nil, err
		}
		entry.RecordedAt = timestamp

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating zone state history: %w", err)
	}

	return entries, nil
}

// Prune deletes history entries older than the given duration.
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM zone_state_history WHERE recorded_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting zone state history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// parseHistoryTimestamp parses a timestamp stored in SQLite.
func parseHistoryTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("recorded_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp, nil
	}

	fallback, fallbackErr := time.Parse("2006-01-02T15:04:05Z", value)
	if fallbackErr == nil {
		return fallback, nil
	}

	return time.Time{}, fmt.Errorf("parsing recorded_at: %w", err)
}
