package history

import (
	"context"
	"time"
)

// State keys recorded in zone history.
const (
	KeyPower  = "power"
	KeyVolume = "volume"
	KeyMute   = "mute"
	KeyInput  = "input"
)

// Entry represents a single observed change to one zone state key.
//
// Each entry stores the key and its new value at the time the change was
// observed. This provides a local audit trail even when the time-series
// database is unavailable.
type Entry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// DeviceID is the unique identifier of the receiver.
	DeviceID string `json:"device_id"`

	// Zone is the zone number the change belongs to.
	Zone int `json:"zone"`

	// Key is the state key that changed (power, volume, mute, input).
	Key string `json:"key"`

	// Value is the new value rendered as text.
	Value string `json:"value"`

	// RecordedAt is the timestamp of the change (UTC).
	RecordedAt time.Time `json:"recorded_at"`
}

// Repository stores and retrieves zone state change history.
//
// Implementations must be thread-safe and use UTC timestamps.
type Repository interface {
	// RecordChange records one zone state change.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - deviceID: Unique receiver identifier
	//   - zone: Zone number
	//   - key: State key that changed (power, volume, mute, input)
	//   - value: New value rendered as text
	//
	// Returns:
	//   - error: nil on success, otherwise the underlying persistence error
	RecordChange(ctx context.Context, deviceID string, zone int, key, value string) error

	// GetHistory returns recent state changes for one zone, newest first.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - deviceID: Unique receiver identifier
	//   - zone: Zone number
	//   - limit: Maximum entries to return (implementation may clamp bounds)
	//
	// Returns:
	//   - []Entry: Ordered newest-first history entries (may be empty)
	//   - error: nil on success, otherwise the underlying query error
	GetHistory(ctx context.Context, deviceID string, zone int, limit int) ([]Entry, error)

	// Prune deletes history entries older than the given duration.
	//
	// Returns:
	//   - int64: Number of rows deleted
	//   - error: nil on success, otherwise the underlying database error
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}
