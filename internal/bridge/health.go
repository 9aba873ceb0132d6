package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/avr-bridge/internal/avr"
	"github.com/nerrad567/avr-bridge/internal/infrastructure/mqtt"
)

// defaultHealthInterval is used when HealthReporterConfig.Interval is zero.
const defaultHealthInterval = 30 * time.Second

// HealthReporter publishes the bridge's health to MQTT: once at startup,
// then on a fixed interval, and a final "stopping" message on shutdown.
// Health degrades when either the broker or the receiver link is down.
type HealthReporter struct {
	bridgeID  string
	version   string
	address   string
	startTime time.Time
	interval  time.Duration
	publisher HealthPublisher
	avrClient avr.Controller

	zoneCount   int
	zoneCountMu sync.RWMutex

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// HealthPublisher is the slice of the MQTT client health reporting needs.
type HealthPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// Logger is the structured logging interface used by the bridge.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// HealthReporterConfig configures a HealthReporter.
type HealthReporterConfig struct {
	// BridgeID identifies this bridge in health messages.
	BridgeID string

	// Version is the bridge software version.
	Version string

	// Address is the receiver host:port, reported in the connection block.
	Address string

	// Interval between periodic publishes. Zero means 30 seconds.
	Interval time.Duration

	// Publisher delivers the health messages.
	Publisher HealthPublisher

	// AVRClient supplies receiver link state and statistics.
	AVRClient avr.Controller
}

// NewHealthReporter builds a reporter; nothing is published until Start.
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultHealthInterval
	}

	return &HealthReporter{
		bridgeID:  cfg.BridgeID,
		version:   cfg.Version,
		address:   cfg.Address,
		startTime: time.Now(),
		interval:  interval,
		publisher: cfg.Publisher,
		avrClient: cfg.AVRClient,
		done:      make(chan struct{}),
	}
}

// Start launches the report loop. ctx cancellation or Stop ends it.
func (h *HealthReporter) Start(ctx context.Context) {
	h.wg.Add(1)
	go h.reportLoop(ctx)
}

// Stop ends reporting and publishes a final "stopping" status.
// Idempotent.
func (h *HealthReporter) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		// The broker may already be gone during shutdown.
		h.publishStatus(HealthStopping, "") //nolint:errcheck
	})
}

// SetZoneCount updates the managed zone count reported in health messages.
func (h *HealthReporter) SetZoneCount(count int) {
	h.zoneCountMu.Lock()
	h.zoneCount = count
	h.zoneCountMu.Unlock()
}

// SetLogger sets the logger for this reporter.
func (h *HealthReporter) SetLogger(logger Logger) {
	h.loggerMu.Lock()
	h.logger = logger
	h.loggerMu.Unlock()
}

// PublishStarting announces the bridge is initialising.
func (h *HealthReporter) PublishStarting() error {
	return h.publishStatus(HealthStarting, "bridge starting")
}

// PublishNow evaluates and publishes the current status immediately,
// outside the regular interval.
func (h *HealthReporter) PublishNow() error {
	status, reason := h.determineStatus()
	return h.publishStatus(status, reason)
}

// GetLWTPayload renders the last-will payload the broker should publish
// if this bridge dies without a clean disconnect.
func (h *HealthReporter) GetLWTPayload() ([]byte, error) {
	return json.Marshal(NewLWTMessage(h.bridgeID))
}

// GetLWTTopic returns the topic the last-will payload belongs on.
func (h *HealthReporter) GetLWTTopic() string {
	return mqtt.Topics{}.Health()
}

func (h *HealthReporter) reportLoop(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	if err := h.PublishNow(); err != nil {
		h.logError("failed to publish initial health", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			if err := h.PublishNow(); err != nil {
				h.logError("failed to publish health", err)
			}
		}
	}
}

// determineStatus derives the health level from the two links the bridge
// depends on.
func (h *HealthReporter) determineStatus() (HealthStatus, string) {
	if h.publisher == nil || !h.publisher.IsConnected() {
		return HealthDegraded, "MQTT disconnected"
	}
	if h.avrClient == nil || !h.avrClient.IsConnected() {
		return HealthDegraded, "receiver disconnected"
	}
	return HealthHealthy, ""
}

// publishStatus assembles and publishes one health message, retained at
// QoS 1 so the latest status survives for late subscribers.
func (h *HealthReporter) publishStatus(status HealthStatus, reason string) error {
	if h.publisher == nil {
		return nil
	}

	h.zoneCountMu.RLock()
	zoneCount := h.zoneCount
	h.zoneCountMu.RUnlock()

	var stats avr.Stats
	if h.avrClient != nil {
		stats = h.avrClient.Stats()
	}

	msg := NewHealthMessage(h.bridgeID, h.version, status, stats, zoneCount, h.startTime)
	if reason != "" {
		msg.Reason = reason
	}
	if msg.Connection != nil {
		msg.Connection.Address = h.address
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return h.publisher.Publish(mqtt.Topics{}.Health(), payload, 1, true)
}

func (h *HealthReporter) logError(msg string, err error) {
	h.loggerMu.RLock()
	logger := h.logger
	h.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
