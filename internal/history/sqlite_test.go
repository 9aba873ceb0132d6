package history

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupHistoryTestDB creates an in-memory SQLite database with the zone_state_history table.
func setupHistoryTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1) // keep the in-memory database on one connection

	schema := `
		CREATE TABLE zone_state_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id TEXT NOT NULL,
			zone INTEGER NOT NULL,
			state_key TEXT NOT NULL,
			state_value TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);
		CREATE INDEX idx_zone_state_history_device_zone
			ON zone_state_history (device_id, zone, recorded_at);
		CREATE INDEX idx_zone_state_history_recorded_at
			ON zone_state_history (recorded_at);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// insertHistoryRow inserts a history row with a specific timestamp.
func insertHistoryRow(t *testing.T, db *sql.DB, deviceID string, zone int, key, value string, recordedAt time.Time) {
	t.Helper()

	_, err := db.Exec(
		"INSERT INTO zone_state_history (device_id, zone, state_key, state_value, recorded_at) VALUES (?, ?, ?, ?, ?)",
		deviceID,
		zone,
		key,
		value,
		recordedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		t.Fatalf("failed to insert history row: %v", err)
	}
}

// TestRecordChange verifies history writes and retrieval.
func TestRecordChange(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if err := repo.RecordChange(ctx, "avr-1", 1, KeyVolume, "-32"); err != nil {
		t.Fatalf("RecordChange() error = %v", err)
	}

	entries, err := repo.GetHistory(ctx, "avr-1", 1, 10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries length = %d, want 1", len(entries))
	}

	entry := entries[0]
	if entry.DeviceID != "avr-1" {
		t.Errorf("DeviceID = %q, want %q", entry.DeviceID, "avr-1")
	}
	if entry.Zone != 1 {
		t.Errorf("Zone = %d, want 1", entry.Zone)
	}
	if entry.Key != KeyVolume {
		t.Errorf("Key = %q, want %q", entry.Key, KeyVolume)
	}
	if entry.Value != "-32" {
		t.Errorf("Value = %q, want %q", entry.Value, "-32")
	}
	if entry.RecordedAt.IsZero() {
		t.Error("RecordedAt is zero, want non-zero")
	}
}

// TestRecordChange_Validation verifies invalid arguments are rejected.
func TestRecordChange_Validation(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	tests := []struct {
		name     string
		deviceID string
		zone     int
		key      string
	}{
		{name: "empty device id", deviceID: "", zone: 1, key: KeyPower},
		{name: "zero zone", deviceID: "avr-1", zone: 0, key: KeyPower},
		{name: "empty key", deviceID: "avr-1", zone: 1, key: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.RecordChange(ctx, tt.deviceID, tt.zone, tt.key, "1"); err == nil {
				t.Error("RecordChange() expected error, got nil")
			}
		})
	}
}

// TestGetHistory verifies ordering and limit enforcement.
func TestGetHistory(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	insertHistoryRow(t, db, "avr-1", 1, KeyPower, "0", now.Add(-2*time.Hour))
	insertHistoryRow(t, db, "avr-1", 1, KeyPower, "1", now.Add(-1*time.Hour))
	insertHistoryRow(t, db, "avr-1", 1, KeyVolume, "-28", now)
	insertHistoryRow(t, db, "avr-1", 2, KeyPower, "1", now)
	insertHistoryRow(t, db, "avr-2", 1, KeyPower, "1", now)

	entries, err := repo.GetHistory(ctx, "avr-1", 1, 2)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries length = %d, want 2", len(entries))
	}

	if !entries[0].RecordedAt.Equal(now) {
		t.Errorf("entry[0] RecordedAt = %s, want %s", entries[0].RecordedAt, now)
	}
	if entries[0].Key != KeyVolume {
		t.Errorf("entry[0] Key = %q, want %q", entries[0].Key, KeyVolume)
	}
	if entries[1].Value != "1" {
		t.Errorf("entry[1] Value = %q, want %q", entries[1].Value, "1")
	}
}

// TestGetHistory_Empty verifies an empty result for an unknown zone.
func TestGetHistory_Empty(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	entries, err := repo.GetHistory(ctx, "avr-1", 1, 10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries length = %d, want 0", len(entries))
	}
}

// TestGetHistory_LimitClamping verifies limit defaults and clamping.
func TestGetHistory_LimitClamping(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	for i := 0; i < defaultHistoryLimit+10; i++ {
		insertHistoryRow(t, db, "avr-1", 1, KeyVolume, "-30", now.Add(time.Duration(-i)*time.Minute))
	}

	// Zero limit uses the default.
	entries, err := repo.GetHistory(ctx, "avr-1", 1, 0)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != defaultHistoryLimit {
		t.Errorf("entries length = %d, want %d", len(entries), defaultHistoryLimit)
	}

	// Oversized limit is clamped.
	entries, err = repo.GetHistory(ctx, "avr-1", 1, maxHistoryLimit*10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) > maxHistoryLimit {
		t.Errorf("entries length = %d, want at most %d", len(entries), maxHistoryLimit)
	}
}

// TestPrune verifies old rows are deleted and recent ones kept.
func TestPrune(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	insertHistoryRow(t, db, "avr-1", 1, KeyPower, "1", now.Add(-48*time.Hour))
	insertHistoryRow(t, db, "avr-1", 1, KeyPower, "0", now.Add(-25*time.Hour))
	insertHistoryRow(t, db, "avr-1", 1, KeyPower, "1", now.Add(-1*time.Hour))

	deleted, err := repo.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("Prune() deleted = %d, want 2", deleted)
	}

	entries, err := repo.GetHistory(ctx, "avr-1", 1, 10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries length = %d, want 1", len(entries))
	}
}

// TestPrune_InvalidDuration verifies non-positive durations are rejected.
func TestPrune_InvalidDuration(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if _, err := repo.Prune(ctx, 0); err == nil {
		t.Error("Prune(0) expected error, got nil")
	}
	if _, err := repo.Prune(ctx, -time.Hour); err == nil {
		t.Error("Prune(-1h) expected error, got nil")
	}
}

// TestRepositoryInterface verifies SQLiteRepository satisfies Repository.
func TestRepositoryInterface(t *testing.T) {
	var _ Repository = (*SQLiteRepository)(nil)
}
