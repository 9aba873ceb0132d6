// Package bridge translates between the Anthem receiver protocol and MQTT.
//
// The bridge subscribes to command and request topics, turns incoming
// messages into receiver commands, and publishes recognised receiver
// notifications as retained zone state messages. Observed state changes
// are also recorded to SQLite history and, when configured, to InfluxDB.
//
// # Message Flow
//
// Inbound (MQTT → receiver):
//
//	avrbridge/command/anthem/{device_id}  → CommandMessage → receiver command
//	avrbridge/request/anthem/{request_id} → RequestMessage → queries / lookups
//
// Outbound (receiver → MQTT):
//
//	zone notification → avrbridge/state/anthem/{device_id}/zone/{n} (retained)
//	identity/inputs   → avrbridge/info/anthem/{device_id} (retained)
//	acks              → avrbridge/ack/anthem/{device_id}
//	responses         → avrbridge/response/anthem/{request_id}
//	health            → avrbridge/health/anthem (retained, periodic)
//
// # Change Detection
//
// State messages are published only when a value actually changes. The
// receiver repeats notifications (every command is echoed back as a status
// line), so the bridge keeps a small per-zone cache and drops duplicates.
//
// # Shutdown
//
// Stop cancels in-flight operations, publishes a final "stopping" health
// status, and waits for background goroutines to finish.
package bridge
