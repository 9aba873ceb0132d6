package influxdb

import "errors"

// Sentinel errors, matched with errors.Is.
var (
	// ErrNotConnected: the client has no live InfluxDB session.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed: Connect could not reach a healthy server.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed: a synchronous write path failed. Batched writes
	// report failures through the SetOnError callback instead.
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrDisabled: telemetry is turned off in the configuration.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
