package mqtt

import "fmt"

// Topic prefixes for the AVR bridge MQTT surface.
//
// All bridge topics use the flat scheme: avrbridge/{category}/{protocol}/{id}
// where protocol is "anthem" for this bridge.
const (
	// TopicPrefixBridge is the base for all bridge topics.
	TopicPrefixBridge = "avrbridge"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "avrbridge/system"

	// ProtocolName identifies this bridge in topic paths.
	ProtocolName = "anthem"
)

// Topics provides builders for AVR bridge MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.ZoneState("living-room-avr", 1)
//	// Returns: "avrbridge/state/anthem/living-room-avr/zone/1"
type Topics struct{}

// ZoneState returns the topic for zone state updates.
//
// Example: avrbridge/state/anthem/living-room-avr/zone/1
func (Topics) ZoneState(deviceID string, zone int) string {
	return fmt.Sprintf("%s/state/%s/%s/zone/%d", TopicPrefixBridge, ProtocolName, deviceID, zone)
}

// DeviceInfo returns the topic for receiver identity and input names.
// Published retained so late subscribers see the current inventory.
//
// Example: avrbridge/info/anthem/living-room-avr
func (Topics) DeviceInfo(deviceID string) string {
	return fmt.Sprintf("%s/info/%s/%s", TopicPrefixBridge, ProtocolName, deviceID)
}

// DeviceCommand returns the topic for commands to a receiver.
//
// Example: avrbridge/command/anthem/living-room-avr
func (Topics) DeviceCommand(deviceID string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefixBridge, ProtocolName, deviceID)
}

// DeviceAck returns the topic for command acknowledgements.
//
// Example: avrbridge/ack/anthem/living-room-avr
func (Topics) DeviceAck(deviceID string) string {
	return fmt.Sprintf("%s/ack/%s/%s", TopicPrefixBridge, ProtocolName, deviceID)
}

// Request returns the topic for state requests to the bridge.
//
// Example: avrbridge/request/anthem/req-abc123
func (Topics) Request(requestID string) string {
	return fmt.Sprintf("%s/request/%s/%s", TopicPrefixBridge, ProtocolName, requestID)
}

// Response returns the topic for request responses from the bridge.
//
// Example: avrbridge/response/anthem/req-abc123
func (Topics) Response(requestID string) string {
	return fmt.Sprintf("%s/response/%s/%s", TopicPrefixBridge, ProtocolName, requestID)
}

// Health returns the topic for bridge health status.
//
// Example: avrbridge/health/anthem
func (Topics) Health() string {
	return fmt.Sprintf("%s/health/%s", TopicPrefixBridge, ProtocolName)
}

// SystemStatus returns the bridge process status topic (online/offline LWT).
//
// Example: avrbridge/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllZoneStates returns a pattern matching all zone state updates.
//
// Pattern: avrbridge/state/anthem/+/zone/+
func (Topics) AllZoneStates() string {
	return fmt.Sprintf("%s/state/%s/+/zone/+", TopicPrefixBridge, ProtocolName)
}

// AllCommands returns a pattern matching all receiver command topics.
//
// Pattern: avrbridge/command/anthem/+
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/command/%s/+", TopicPrefixBridge, ProtocolName)
}

// AllRequests returns a pattern matching all request topics.
//
// Pattern: avrbridge/request/anthem/+
func (Topics) AllRequests() string {
	return fmt.Sprintf("%s/request/%s/+", TopicPrefixBridge, ProtocolName)
}

// AllTopics returns a pattern matching all bridge topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: avrbridge/#
func (Topics) AllTopics() string {
	return "avrbridge/#"
}
