package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/avr-bridge/internal/avr"
)

// JSON payloads the bridge exchanges over MQTT.

// CommandMessage asks the bridge to drive the receiver.
// Topic: avrbridge/command/anthem/{device_id}
type CommandMessage struct {
	// ID correlates this command with its acknowledgment.
	ID string `json:"id"`

	// Timestamp is the issue time (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Action names the operation: "power_on", "set_volume",
	// "select_input" and so on.
	Action string `json:"action"`

	// Zone is the target zone. Zone 1 when omitted.
	Zone int `json:"zone,omitempty"`

	// Parameters carries per-action arguments:
	//   {"volume_db": -35} for set_volume
	//   {"input": 3} or {"input_name": "Blu-ray"} for select_input
	//   {"muted": true} for set_mute
	Parameters map[string]any `json:"parameters,omitempty"`

	// Source records who issued the command ("api", "automation",
	// "panel"). Informational only.
	Source string `json:"source,omitempty"`
}

// AckStatus is the outcome reported for a command.
type AckStatus string

const (
	// AckAccepted: the command was parsed and written to the receiver.
	AckAccepted AckStatus = "accepted"

	// AckFailed: the command was rejected or the write failed.
	AckFailed AckStatus = "failed"
)

// AckMessage reports the outcome of a CommandMessage.
// Topic: avrbridge/ack/anthem/{device_id}
type AckMessage struct {
	// CommandID echoes the ID of the command being acknowledged.
	CommandID string `json:"command_id"`

	// Timestamp is the acknowledgment time (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// DeviceID names the receiver the command targeted.
	DeviceID string `json:"device_id"`

	// Zone the command applied to.
	Zone int `json:"zone"`

	// Status is accepted or failed.
	Status AckStatus `json:"status"`

	// Error is populated when Status is failed.
	Error *AckError `json:"error,omitempty"`
}

// AckError describes why a command failed.
type AckError struct {
	// Code is a stable machine-readable failure code.
	Code string `json:"code"`

	// Message explains the failure for humans.
	Message string `json:"message"`
}

// Failure codes carried in AckError and ResponseError.
const (
	ErrCodeDeviceUnreachable = "DEVICE_UNREACHABLE"
	ErrCodeInvalidCommand    = "INVALID_COMMAND"
	ErrCodeInvalidParameters = "INVALID_PARAMETERS"
	ErrCodeUnknownZone       = "UNKNOWN_ZONE"
	ErrCodeUnknownInput      = "UNKNOWN_INPUT"
	ErrCodeBridgeError       = "BRIDGE_ERROR"
)

// StateMessage carries a zone's current state whenever it changes.
// Topic: avrbridge/state/anthem/{device_id}/zone/{zone}
// QoS: 1, Retained: Yes
type StateMessage struct {
	// DeviceID names the receiver.
	DeviceID string `json:"device_id"`

	// Zone the state belongs to.
	Zone int `json:"zone"`

	// Timestamp is the observation time (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// State holds the zone's known fields. A key appears only after
	// the receiver has reported it at least once:
	//   {"power": true, "volume": -35, "mute": false, "input": 3, "input_name": "Blu-ray"}
	State map[string]any `json:"state"`
}

// InfoMessage carries receiver identity plus the discovered input table.
// Topic: avrbridge/info/anthem/{device_id}
// QoS: 1, Retained: Yes
type InfoMessage struct {
	// DeviceID names the receiver.
	DeviceID string `json:"device_id"`

	// Timestamp is the generation time (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Model as reported by the receiver, when seen.
	Model string `json:"model,omitempty"`

	// Name the receiver calls itself, when seen.
	Name string `json:"name,omitempty"`

	// Region code, when seen.
	Region string `json:"region,omitempty"`

	// SoftwareVersion is the firmware version, when seen.
	SoftwareVersion string `json:"software_version,omitempty"`

	// Inputs lists discovered input names in slot order.
	Inputs []string `json:"inputs"`
}

// HealthStatus is the bridge's self-reported condition.
type HealthStatus string

const (
	// HealthHealthy: broker and receiver links both up.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded: running, but one of the links is down.
	HealthDegraded HealthStatus = "degraded"

	// HealthOffline: published by the broker as the bridge's last will.
	HealthOffline HealthStatus = "offline"

	// HealthStarting: initialisation in progress.
	HealthStarting HealthStatus = "starting"

	// HealthStopping: clean shutdown in progress.
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage is the bridge's periodic status report.
// Topic: avrbridge/health/anthem
// QoS: 1, Retained: Yes
type HealthMessage struct {
	// Bridge identifies the publishing bridge instance.
	Bridge string `json:"bridge"`

	// Timestamp is the report time (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Status is the current condition.
	Status HealthStatus `json:"status"`

	// Version of the bridge binary.
	Version string `json:"version"`

	// UptimeSeconds since the bridge started.
	UptimeSeconds int64 `json:"uptime_seconds"`

	// Connection describes the receiver link, when known.
	Connection *ConnectionStatus `json:"connection,omitempty"`

	// Statistics holds traffic counters, when known.
	Statistics *BridgeStatistics `json:"statistics,omitempty"`

	// ZonesManaged is the configured zone count.
	ZonesManaged int `json:"zones_managed"`

	// Reason qualifies degraded/offline statuses.
	Reason string `json:"reason,omitempty"`
}

// ConnectionStatus describes the TCP link to the receiver.
type ConnectionStatus struct {
	// Status is "connected" or "disconnected".
	Status string `json:"status"`

	// Address is the receiver's host:port.
	Address string `json:"address"`

	// LastActivity is when the receiver last sent a line, if ever.
	LastActivity *time.Time `json:"last_activity,omitempty"`
}

// BridgeStatistics holds cumulative traffic counters.
type BridgeStatistics struct {
	// LinesReceived counts protocol lines read from the receiver.
	LinesReceived uint64 `json:"lines_received"`

	// CommandsSent counts commands written to the receiver.
	CommandsSent uint64 `json:"commands_sent"`

	// LinesDropped counts lines the parser could not classify.
	LinesDropped uint64 `json:"lines_dropped"`

	// Errors counts I/O and protocol errors.
	Errors uint64 `json:"errors"`

	// InputsFound is how many input names the handshake discovered.
	InputsFound int `json:"inputs_found"`
}

// RequestMessage asks the bridge a question and expects a response.
// Topic: avrbridge/request/anthem/{request_id}
type RequestMessage struct {
	// RequestID correlates the response with this request.
	RequestID string `json:"request_id"`

	// Timestamp is the issue time (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Action names the query: "read_state", "read_all",
	// "get_inputs", "get_history".
	Action string `json:"action"`

	// Zone scopes zone-specific actions.
	Zone int `json:"zone,omitempty"`

	// Parameters carries per-action arguments.
	Parameters map[string]any `json:"parameters,omitempty"`
}

// ResponseMessage answers a RequestMessage.
// Topic: avrbridge/response/anthem/{request_id}
type ResponseMessage struct {
	// RequestID echoes the ID of the request being answered.
	RequestID string `json:"request_id"`

	// Timestamp is the answer time (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Success reports whether the request was served.
	Success bool `json:"success"`

	// Data is the payload on success.
	Data map[string]any `json:"data,omitempty"`

	// Error is populated on failure.
	Error *ResponseError `json:"error,omitempty"`
}

// ResponseError describes why a request failed.
type ResponseError struct {
	// Code is a stable machine-readable failure code.
	Code string `json:"code"`

	// Message explains the failure for humans.
	Message string `json:"message"`
}

// Marshalling helpers. Timestamps go over the wire as RFC3339 UTC
// strings rather than Go's default time encoding.

// MarshalJSON marshals a CommandMessage to JSON.
func (m *CommandMessage) MarshalJSON() ([]byte, error) {
	type Alias CommandMessage
	return json.Marshal(&struct {
		*Alias
		Timestamp string `json:"timestamp"`
	}{
		Alias:     (*Alias)(m),
		Timestamp: m.Timestamp.UTC().Format(time.RFC3339),
	})
}

// UnmarshalJSON unmarshals a CommandMessage from JSON.
func (m *CommandMessage) UnmarshalJSON(data []byte) error {
	type Alias CommandMessage
	aux := &struct {
		*Alias
		Timestamp string `json:"timestamp"`
	}{
		Alias: (*Alias)(m),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return fmt.Errorf("unmarshal command message: %w", err)
	}
	if aux.Timestamp != "" {
		t, err := time.Parse(time.RFC3339, aux.Timestamp)
		if err != nil {
			return fmt.Errorf("parse timestamp: %w", err)
		}
		m.Timestamp = t
	}
	return nil
}

// NewAckMessage builds an acknowledgment for cmd.
func NewAckMessage(cmd CommandMessage, deviceID string, zone int, status AckStatus) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		DeviceID:  deviceID,
		Zone:      zone,
		Status:    status,
	}
}

// NewAckError builds a failed acknowledgment for cmd.
func NewAckError(cmd CommandMessage, deviceID string, zone int, code, message string) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		DeviceID:  deviceID,
		Zone:      zone,
		Status:    AckFailed,
		Error: &AckError{
			Code:    code,
			Message: message,
		},
	}
}

// NewStateMessage builds a state message for one zone.
func NewStateMessage(deviceID string, zone int, state map[string]any) StateMessage {
	return StateMessage{
		DeviceID:  deviceID,
		Zone:      zone,
		Timestamp: time.Now().UTC(),
		State:     state,
	}
}

// NewHealthMessage builds a health report from the receiver's stats.
func NewHealthMessage(bridgeID, version string, status HealthStatus, stats avr.Stats, zoneCount int, startTime time.Time) HealthMessage {
	msg := HealthMessage{
		Bridge:        bridgeID,
		Timestamp:     time.Now().UTC(),
		Status:        status,
		Version:       version,
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		ZonesManaged:  zoneCount,
	}

	if stats.Connected {
		lastActivity := stats.LastActivity
		msg.Connection = &ConnectionStatus{
			Status:       "connected",
			LastActivity: &lastActivity,
		}
	} else {
		msg.Connection = &ConnectionStatus{
			Status: "disconnected",
		}
	}

	msg.Statistics = &BridgeStatistics{
		LinesReceived: stats.LinesRx,
		CommandsSent:  stats.CommandsTx,
		LinesDropped:  stats.LinesDropped,
		Errors:        stats.ErrorsTotal,
		InputsFound:   stats.InputsFound,
	}

	return msg
}

// NewLWTMessage builds the payload registered as the MQTT last will,
// which the broker publishes if the bridge vanishes without a clean
// disconnect.
func NewLWTMessage(bridgeID string) HealthMessage {
	return HealthMessage{
		Bridge:    bridgeID,
		Timestamp: time.Now().UTC(),
		Status:    HealthOffline,
		Reason:    "unexpected_disconnect",
	}
}
