// Package history persists zone state changes to SQLite.
//
// Every recognised state change observed from the receiver (power, volume,
// mute, input) is recorded as one row in the zone_state_history table. The
// table acts as a local audit trail and survives bridge restarts; long-term
// telemetry lives in InfluxDB.
//
// Rows older than the configured retention window are removed by Prune,
// which the bridge runs periodically.
package history
