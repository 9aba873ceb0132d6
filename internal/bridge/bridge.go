package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/avr-bridge/internal/avr"
	"github.com/nerrad567/avr-bridge/internal/history"
	"github.com/nerrad567/avr-bridge/internal/infrastructure/mqtt"
)

// Bridge operation constants.
const (
	// defaultZone is used when a command or request omits the zone.
	defaultZone = 1

	// historyPruneInterval is how often old history rows are removed.
	historyPruneInterval = 12 * time.Hour

	// hoursPerDay converts retention days to a prune cutoff duration.
	hoursPerDay = 24
)

// Bridge orchestrates bidirectional translation between the receiver and MQTT.
// It handles:
//   - Receiving commands via MQTT and translating them to receiver commands
//   - Receiving receiver notifications and publishing state updates to MQTT
//   - Recording state changes to SQLite and InfluxDB
//   - Health reporting and graceful shutdown
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	deviceID string
	zones    []int
	zoneSet  map[int]bool
	qos      byte
	mqtt     MQTTClient
	avr      avr.Controller
	health   *HealthReporter
	topics   mqtt.Topics

	// Optional persistence backends. Either may be nil.
	history       history.Repository
	metrics       MetricsWriter
	retentionDays int

	// State cache for change detection
	stateCache   map[int]map[string]any
	stateCacheMu sync.Mutex

	// Shutdown coordination
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context    // Bridge-level context, cancelled on Stop()
	ctxCancel context.CancelFunc // Cancel function for ctx

	// Logger
	logger   Logger
	loggerMu sync.RWMutex
}

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// MetricsWriter records zone telemetry to a time-series database.
// This interface is satisfied by *influxdb.Client.
// It is optional - if nil, the bridge operates without telemetry.
type MetricsWriter interface {
	// WriteZoneMetric records a single zone measurement.
	WriteZoneMetric(deviceID string, zone int, measurement string, value float64)
}

// Options holds configuration for creating a bridge.
type Options struct {
	// DeviceID identifies the receiver in topics and stored history.
	DeviceID string

	// Zones lists the zone numbers the bridge manages.
	Zones []int

	// Version is the bridge software version for health reporting.
	Version string

	// Address is the receiver address (host:port) for health reporting.
	Address string

	// QoS is the MQTT quality of service for bridge messages.
	QoS byte

	// HealthInterval is how often health status is published.
	// Default: 30 seconds.
	HealthInterval time.Duration

	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// AVRClient is the receiver connection.
	AVRClient avr.Controller

	// Logger is optional structured logger.
	Logger Logger

	// History is optional zone state persistence.
	// If nil, the bridge operates without local history.
	History history.Repository

	// RetentionDays is how long history rows are kept. 0 disables pruning.
	RetentionDays int

	// Metrics is optional time-series telemetry.
	// If nil, the bridge operates without telemetry.
	Metrics MetricsWriter
}

// New creates a new bridge instance.
// Call Start() to begin operation.
func New(opts Options) (*Bridge, error) {
	if opts.DeviceID == "" {
		return nil, fmt.Errorf("device ID is required")
	}
	if len(opts.Zones) == 0 {
		return nil, fmt.Errorf("at least one zone is required")
	}
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.AVRClient == nil {
		return nil, fmt.Errorf("receiver client is required")
	}

	zoneSet := make(map[int]bool, len(opts.Zones))
	for _, z := range opts.Zones {
		zoneSet[z] = true
	}

	// Create bridge-level context for command cancellation on shutdown
	ctx, ctxCancel := context.WithCancel(context.Background())

	b := &Bridge{
		deviceID:      opts.DeviceID,
		zones:         opts.Zones,
		zoneSet:       zoneSet,
		qos:           opts.QoS,
		mqtt:          opts.MQTTClient,
		avr:           opts.AVRClient,
		history:       opts.History, // May be nil (optional)
		metrics:       opts.Metrics, // May be nil (optional)
		retentionDays: opts.RetentionDays,
		stateCache:    make(map[int]map[string]any),
		done:          make(chan struct{}),
		ctx:           ctx,
		ctxCancel:     ctxCancel,
		logger:        opts.Logger,
	}

	// Create health reporter
	b.health = NewHealthReporter(HealthReporterConfig{
		BridgeID:  opts.DeviceID,
		Version:   opts.Version,
		Address:   opts.Address,
		Interval:  opts.HealthInterval,
		Publisher: opts.MQTTClient,
		AVRClient: opts.AVRClient,
	})
	b.health.SetZoneCount(len(opts.Zones))
	if opts.Logger != nil {
		b.health.SetLogger(opts.Logger)
	}

	return b, nil
}

// Start begins bridge operation.
// This subscribes to MQTT topics, registers the receiver update handler,
// starts health reporting, and queries initial state for all zones.
func (b *Bridge) Start(ctx context.Context) error {
	// Publish starting status
	if err := b.health.PublishStarting(); err != nil {
		b.logError("failed to publish starting status", err)
	}

	// Register receiver update handler
	b.avr.SetOnUpdate(b.handleUpdate)

	// Subscribe to the command topic
	commandTopic := b.topics.DeviceCommand(b.deviceID)
	if err := b.mqtt.Subscribe(commandTopic, b.qos, b.handleCommandMessage); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", commandTopic)

	// Subscribe to request topics
	requestTopic := b.topics.AllRequests()
	if err := b.mqtt.Subscribe(requestTopic, b.qos, b.handleRequestMessage); err != nil {
		return fmt.Errorf("subscribe to requests: %w", err)
	}
	b.logInfo("subscribed to requests", "topic", requestTopic)

	// Start health reporting
	b.health.Start(ctx)

	// Publish receiver identity and discovered inputs
	b.publishInfo()

	// Query initial state for all managed zones in the background.
	// Responses arrive as notifications and flow through handleUpdate.
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for _, zone := range b.zones {
			if !b.avr.QueryAll(b.ctx, zone) {
				b.logWarn("initial state query failed", "zone", zone)
			}
		}
	}()

	// Start periodic history pruning
	if b.history != nil && b.retentionDays > 0 {
		b.wg.Add(1)
		go b.pruneLoop()
	}

	b.logInfo("bridge started",
		"device_id", b.deviceID,
		"zones", len(b.zones))

	return nil
}

// Stop gracefully shuts down the bridge.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)

		// Cancel bridge context to abort in-flight operations
		b.ctxCancel()

		// Stop health reporting (publishes "stopping" status)
		b.health.Stop()

		// Wait for pending operations
		b.wg.Wait()

		b.logInfo("bridge stopped")
	})
}

// handleUpdate processes a recognised notification from the receiver.
func (b *Bridge) handleUpdate(u avr.Update) {
	switch u.Kind {
	case avr.UpdateZonePower, avr.UpdateZoneVolume, avr.UpdateZoneMute,
		avr.UpdateZoneInput, avr.UpdateZoneInputName, avr.UpdateZoneAudioFormat:
		b.handleZoneUpdate(u)
	case avr.UpdateModel, avr.UpdateDeviceName, avr.UpdateRegion,
		avr.UpdateSoftwareVersion, avr.UpdateInputName:
		b.publishInfo()
	default:
		// Unrecognised lines never reach the callback.
	}
}

// handleZoneUpdate publishes, records, and measures a zone state change.
func (b *Bridge) handleZoneUpdate(u avr.Update) {
	if !b.zoneSet[u.Zone] {
		b.logDebug("update for unmanaged zone", "zone", u.Zone, "raw", u.Raw)
		return
	}

	key, value := updateKeyValue(u)
	if key == "" {
		return
	}

	if b.stateUnchanged(u.Zone, key, value) {
		return // No change, skip publish
	}

	// Publish the full zone snapshot (QoS per config, retained)
	msg := NewStateMessage(b.deviceID, u.Zone, b.buildZoneState(u.Zone))

	payload, err := json.Marshal(msg)
	if err != nil {
		b.logError("failed to marshal state", err)
		return
	}

	topic := b.topics.ZoneState(b.deviceID, u.Zone)
	if err := b.mqtt.Publish(topic, payload, b.qos, true); err != nil {
		b.logError("failed to publish state", err)
	}

	// Record to local history (if configured)
	if b.history != nil {
		if hv, ok := historyValue(key, value); ok {
			if err := b.history.RecordChange(b.ctx, b.deviceID, u.Zone, key, hv); err != nil {
				b.logDebug("history record skipped",
					"zone", u.Zone,
					"key", key,
					"reason", err.Error())
			}
		}
	}

	// Record to time-series telemetry (if configured)
	if b.metrics != nil {
		if mv, ok := metricValue(value); ok {
			b.metrics.WriteZoneMetric(b.deviceID, u.Zone, key, mv)
		}
	}
}

// updateKeyValue maps a zone update to its state key and value.
func updateKeyValue(u avr.Update) (string, any) {
	switch u.Kind {
	case avr.UpdateZonePower:
		return "power", u.Flag
	case avr.UpdateZoneVolume:
		return "volume", u.Level
	case avr.UpdateZoneMute:
		return "mute", u.Flag
	case avr.UpdateZoneInput:
		return "input", u.Index
	case avr.UpdateZoneInputName:
		return "input_name", u.Text
	case avr.UpdateZoneAudioFormat:
		return "audio_format", u.Text
	default:
		return "", nil
	}
}

// historyValue renders a state value as text for the history table.
// Only the four queryable keys are recorded.
func historyValue(key string, value any) (string, bool) {
	switch key {
	case history.KeyPower, history.KeyMute:
		if v, ok := value.(bool); ok {
			if v {
				return "1", true
			}
			return "0", true
		}
	case history.KeyVolume, history.KeyInput:
		if v, ok := value.(int); ok {
			return strconv.Itoa(v), true
		}
	}
	return "", false
}

// metricValue converts a state value to a float for telemetry.
// Text values (input_name, audio_format) are not measured.
func metricValue(value any) (float64, bool) {
	switch v := value.(type) {
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// buildZoneState assembles the current zone snapshot from the state cache.
// Keys are present only once the corresponding notification has been observed.
func (b *Bridge) buildZoneState(zone int) map[string]any {
	state := make(map[string]any)
	cache := b.avr.State()

	if power, ok := cache.ZonePower(zone); ok {
		state["power"] = power
	}
	if volume, ok := cache.ZoneVolume(zone); ok {
		state["volume"] = volume
	}
	if muted, ok := cache.ZoneMuted(zone); ok {
		state["mute"] = muted
	}
	if input, ok := cache.ZoneInput(zone); ok {
		state["input"] = input
		state["input_name"] = cache.InputName(input)
	}
	if name, ok := cache.ZoneInputName(zone); ok {
		state["input_name"] = name
	}
	if format, ok := cache.ZoneAudioFormat(zone); ok {
		state["audio_format"] = format
	}

	return state
}

// stateUnchanged checks if the new value matches the cached state.
// Returns true if unchanged (should skip publish).
func (b *Bridge) stateUnchanged(zone int, key string, value any) bool {
	b.stateCacheMu.Lock()
	defer b.stateCacheMu.Unlock()

	if b.stateCache[zone] == nil {
		b.stateCache[zone] = make(map[string]any)
	}

	cached := b.stateCache[zone][key]
	if cached == value {
		return true // Unchanged
	}

	// Update cache
	b.stateCache[zone][key] = value
	return false
}

// publishInfo publishes the receiver identity and discovered inputs.
func (b *Bridge) publishInfo() {
	cache := b.avr.State()

	msg := InfoMessage{
		DeviceID:  b.deviceID,
		Timestamp: time.Now().UTC(),
		Inputs:    cache.InputList(),
	}
	if model, ok := cache.Model(); ok {
		msg.Model = model
	}
	if name, ok := cache.DeviceName(); ok {
		msg.Name = name
	}
	if region, ok := cache.Region(); ok {
		msg.Region = region
	}
	if version, ok := cache.SoftwareVersion(); ok {
		msg.SoftwareVersion = version
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		b.logError("failed to marshal info", err)
		return
	}

	topic := b.topics.DeviceInfo(b.deviceID)
	if err := b.mqtt.Publish(topic, payload, b.qos, true); err != nil {
		b.logError("failed to publish info", err)
	}
}

// handleCommandMessage processes a command message from MQTT.
func (b *Bridge) handleCommandMessage(_ string, payload []byte) {
	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.logError("failed to parse command", err)
		return
	}

	zone := cmd.Zone
	if zone == 0 {
		zone = defaultZone
	}

	b.logInfo("received command",
		"command_id", cmd.ID,
		"action", cmd.Action,
		"zone", zone)

	if !b.zoneSet[zone] {
		b.publishAckError(cmd, zone, ErrCodeUnknownZone,
			fmt.Sprintf("zone %d is not managed", zone))
		return
	}

	if err := b.executeCommand(cmd, zone); err != nil {
		b.logError("command execution failed", err)
		// Error ack already sent by executeCommand
		return
	}

	b.publishAck(cmd, zone, AckAccepted)
}

// executeCommand translates and sends a command to the receiver.
func (b *Bridge) executeCommand(cmd CommandMessage, zone int) error {
	switch cmd.Action {
	case "power_on":
		return b.checkSent(cmd, zone, b.avr.PowerOn(zone))
	case "power_off":
		return b.checkSent(cmd, zone, b.avr.PowerOff(zone))
	case "set_volume":
		return b.executeSetVolume(cmd, zone)
	case "volume_up":
		return b.checkSent(cmd, zone, b.avr.VolumeUp(zone))
	case "volume_down":
		return b.checkSent(cmd, zone, b.avr.VolumeDown(zone))
	case "set_mute":
		return b.executeSetMute(cmd, zone)
	case "select_input":
		return b.executeSelectInput(cmd, zone)
	case "refresh":
		return b.checkSent(cmd, zone, b.avr.QueryAll(b.ctx, zone))
	default:
		b.publishAckError(cmd, zone, ErrCodeInvalidCommand,
			fmt.Sprintf("unknown action: %s", cmd.Action))
		return fmt.Errorf("unknown action: %s", cmd.Action)
	}
}

// checkSent converts a send result into an error ack on failure.
func (b *Bridge) checkSent(cmd CommandMessage, zone int, sent bool) error {
	if !sent {
		b.publishAckError(cmd, zone, ErrCodeDeviceUnreachable, "receiver not reachable")
		return fmt.Errorf("send failed: action=%s zone=%d", cmd.Action, zone)
	}
	return nil
}

// executeSetVolume sends an absolute volume command.
func (b *Bridge) executeSetVolume(cmd CommandMessage, zone int) error {
	levelAny, ok := cmd.Parameters["volume_db"]
	if !ok {
		b.publishAckError(cmd, zone, ErrCodeInvalidParameters,
			"missing 'volume_db' parameter")
		return fmt.Errorf("missing volume_db parameter")
	}

	level, ok := levelAny.(float64)
	if !ok {
		b.publishAckError(cmd, zone, ErrCodeInvalidParameters,
			"'volume_db' must be a number")
		return fmt.Errorf("volume_db must be a number")
	}

	// Out-of-range values are clamped by the command encoder.
	return b.checkSent(cmd, zone, b.avr.SetVolume(zone, int(level)))
}

// executeSetMute sends a mute command.
func (b *Bridge) executeSetMute(cmd CommandMessage, zone int) error {
	mutedAny, ok := cmd.Parameters["muted"]
	if !ok {
		b.publishAckError(cmd, zone, ErrCodeInvalidParameters,
			"missing 'muted' parameter")
		return fmt.Errorf("missing muted parameter")
	}

	muted, ok := mutedAny.(bool)
	if !ok {
		b.publishAckError(cmd, zone, ErrCodeInvalidParameters,
			"'muted' must be a boolean")
		return fmt.Errorf("muted must be a boolean")
	}

	return b.checkSent(cmd, zone, b.avr.SetMute(zone, muted))
}

// executeSelectInput sends an input selection command.
// The input may be given by slot number or by discovered name.
func (b *Bridge) executeSelectInput(cmd CommandMessage, zone int) error {
	if inputAny, ok := cmd.Parameters["input"]; ok {
		input, ok := inputAny.(float64)
		if !ok {
			b.publishAckError(cmd, zone, ErrCodeInvalidParameters,
				"'input' must be a number")
			return fmt.Errorf("input must be a number")
		}
		return b.checkSent(cmd, zone, b.avr.SelectInput(zone, int(input)))
	}

	if nameAny, ok := cmd.Parameters["input_name"]; ok {
		name, ok := nameAny.(string)
		if !ok {
			b.publishAckError(cmd, zone, ErrCodeInvalidParameters,
				"'input_name' must be a string")
			return fmt.Errorf("input_name must be a string")
		}
		index, found := b.avr.State().InputIndex(name)
		if !found {
			b.publishAckError(cmd, zone, ErrCodeUnknownInput,
				fmt.Sprintf("no input named %q", name))
			return fmt.Errorf("unknown input name: %s", name)
		}
		return b.checkSent(cmd, zone, b.avr.SelectInput(zone, index))
	}

	b.publishAckError(cmd, zone, ErrCodeInvalidParameters,
		"missing 'input' or 'input_name' parameter")
	return fmt.Errorf("missing input parameter")
}

// publishAck publishes a command acknowledgment.
func (b *Bridge) publishAck(cmd CommandMessage, zone int, status AckStatus) {
	ack := NewAckMessage(cmd, b.deviceID, zone, status)

	payload, err := json.Marshal(ack)
	if err != nil {
		b.logError("failed to marshal ack", err)
		return
	}

	topic := b.topics.DeviceAck(b.deviceID)
	if err := b.mqtt.Publish(topic, payload, b.qos, false); err != nil {
		b.logError("failed to publish ack", err)
	}
}

// publishAckError publishes a failed command acknowledgment.
func (b *Bridge) publishAckError(cmd CommandMessage, zone int, code, message string) {
	ack := NewAckError(cmd, b.deviceID, zone, code, message)

	payload, err := json.Marshal(ack)
	if err != nil {
		b.logError("failed to marshal ack error", err)
		return
	}

	topic := b.topics.DeviceAck(b.deviceID)
	if err := b.mqtt.Publish(topic, payload, b.qos, false); err != nil {
		b.logError("failed to publish ack error", err)
	}

	b.logError("command failed",
		fmt.Errorf("code=%s message=%s", code, message))
}

// handleRequestMessage processes a request message from MQTT.
func (b *Bridge) handleRequestMessage(_ string, payload []byte) {
	var req RequestMessage
	if err := json.Unmarshal(payload, &req); err != nil {
		b.logError("failed to parse request", err)
		return
	}

	b.logInfo("received request",
		"request_id", req.RequestID,
		"action", req.Action)

	var resp ResponseMessage

	switch req.Action {
	case "read_state":
		resp = b.handleReadState(req)
	case "read_all":
		resp = b.handleReadAll(req)
	case "get_inputs":
		resp = b.handleGetInputs(req)
	case "get_history":
		resp = b.handleGetHistory(req)
	default:
		resp = errorResponse(req.RequestID, ErrCodeInvalidCommand,
			fmt.Sprintf("unknown action: %s", req.Action))
	}

	// Publish response
	respPayload, err := json.Marshal(resp)
	if err != nil {
		b.logError("failed to marshal response", err)
		return
	}

	respTopic := b.topics.Response(req.RequestID)
	if err := b.mqtt.Publish(respTopic, respPayload, b.qos, false); err != nil {
		b.logError("failed to publish response", err)
	}
}

// handleReadState handles a read_state request for one zone.
func (b *Bridge) handleReadState(req RequestMessage) ResponseMessage {
	zone := req.Zone
	if zone == 0 {
		zone = defaultZone
	}

	if !b.zoneSet[zone] {
		return errorResponse(req.RequestID, ErrCodeUnknownZone,
			fmt.Sprintf("zone %d is not managed", zone))
	}

	if !b.avr.QueryAll(b.ctx, zone) {
		return errorResponse(req.RequestID, ErrCodeDeviceUnreachable,
			"receiver not reachable")
	}

	// Return success - fresh state will arrive via notifications
	return ResponseMessage{
		RequestID: req.RequestID,
		Timestamp: time.Now().UTC(),
		Success:   true,
		Data: map[string]any{
			"zone":    zone,
			"state":   b.buildZoneState(zone),
			"message": "queries sent, state updates will follow",
		},
	}
}

// handleReadAll handles a read_all request across all managed zones.
func (b *Bridge) handleReadAll(req RequestMessage) ResponseMessage {
	queried := 0
	for _, zone := range b.zones {
		if !b.avr.QueryAll(b.ctx, zone) {
			return errorResponse(req.RequestID, ErrCodeDeviceUnreachable,
				fmt.Sprintf("query failed for zone %d", zone))
		}
		queried++
	}

	return ResponseMessage{
		RequestID: req.RequestID,
		Timestamp: time.Now().UTC(),
		Success:   true,
		Data: map[string]any{
			"zones_queried": queried,
			"message":       "queries sent, state updates will follow",
		},
	}
}

// handleGetInputs handles a get_inputs request.
func (b *Bridge) handleGetInputs(req RequestMessage) ResponseMessage {
	return ResponseMessage{
		RequestID: req.RequestID,
		Timestamp: time.Now().UTC(),
		Success:   true,
		Data: map[string]any{
			"inputs": b.avr.State().InputList(),
		},
	}
}

// handleGetHistory handles a get_history request for one zone.
func (b *Bridge) handleGetHistory(req RequestMessage) ResponseMessage {
	if b.history == nil {
		return errorResponse(req.RequestID, ErrCodeBridgeError,
			"history is not configured")
	}

	zone := req.Zone
	if zone == 0 {
		zone = defaultZone
	}

	limit := 0
	if limitAny, ok := req.Parameters["limit"]; ok {
		if v, ok := limitAny.(float64); ok {
			limit = int(v)
		}
	}

	entries, err := b.history.GetHistory(b.ctx, b.deviceID, zone, limit)
	if err != nil {
		return errorResponse(req.RequestID, ErrCodeBridgeError,
			fmt.Sprintf("history query failed: %v", err))
	}

	return ResponseMessage{
		RequestID: req.RequestID,
		Timestamp: time.Now().UTC(),
		Success:   true,
		Data: map[string]any{
			"zone":    zone,
			"entries": entries,
		},
	}
}

// errorResponse builds a failed ResponseMessage.
func errorResponse(requestID, code, message string) ResponseMessage {
	return ResponseMessage{
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Success:   false,
		Error: &ResponseError{
			Code:    code,
			Message: message,
		},
	}
}

// pruneLoop periodically removes history rows past the retention window.
func (b *Bridge) pruneLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(historyPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			retention := time.Duration(b.retentionDays) * hoursPerDay * time.Hour
			deleted, err := b.history.Prune(b.ctx, retention)
			if err != nil {
				b.logError("history prune failed", err)
				continue
			}
			if deleted > 0 {
				b.logInfo("pruned history", "rows", deleted)
			}
		}
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()

	if b.health != nil {
		b.health.SetLogger(logger)
	}
}

// logInfo logs an info message if logger is set.
func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning message if logger is set.
func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (b *Bridge) logError(msg string, err error) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}

// logDebug logs a debug message if logger is set.
func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}
