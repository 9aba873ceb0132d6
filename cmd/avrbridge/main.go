// AVR Bridge - Anthem receiver to MQTT gateway
//
// This is the main entry point for the AVR bridge. The bridge maintains a
// TCP control session with an Anthem A/V receiver and exposes it over MQTT:
//   - Zone state (power, volume, mute, input) as retained topics
//   - Commands and request/response operations
//   - Local state history in SQLite and optional InfluxDB telemetry
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/avr-bridge/migrations"

	"github.com/nerrad567/avr-bridge/internal/avr"
	"github.com/nerrad567/avr-bridge/internal/bridge"
	"github.com/nerrad567/avr-bridge/internal/history"
	"github.com/nerrad567/avr-bridge/internal/infrastructure/config"
	"github.com/nerrad567/avr-bridge/internal/infrastructure/database"
	"github.com/nerrad567/avr-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/avr-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/avr-bridge/internal/infrastructure/mqtt"
)

// Build metadata, injected via ldflags:
// go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // semantic version
	commit  = "unknown" // git commit hash
	date    = "unknown" // build timestamp
)

// Config file location when AVRBRIDGE_CONFIG is not set.
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancelled on Ctrl+C or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run holds the real startup/shutdown sequence; main only translates its
// error into an exit code. Keeping it separate lets tests drive it with a
// context.
func run(ctx context.Context) error {
	// Bootstrap logger; replaced once config is known.
	log := logging.Default()
	log.Info("starting AVR bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Now that config is loaded, switch to the configured logger.
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Zone state history repository
	historyRepo := history.NewSQLiteRepository(db.DB)

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetLogger(log.With("component", "mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Telemetry is optional; the bridge runs fine without it.
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Connect to the receiver
	avrClient := avr.NewClient(avr.DeviceConfig{
		Name:           cfg.Device.Name,
		Host:           cfg.Device.Host,
		Port:           cfg.Device.Port,
		ConnectTimeout: cfg.GetConnectTimeout(),
		MaxRetries:     cfg.Device.MaxRetries,
		RetryDelay:     cfg.GetRetryDelay(),
	})
	avrClient.SetLogger(log.With("component", "avr"))

	if !avrClient.Connect(ctx) {
		return fmt.Errorf("connecting to receiver %s:%d failed", cfg.Device.Host, cfg.Device.Port)
	}
	defer func() {
		log.Info("disconnecting from receiver")
		avrClient.Disconnect()
	}()
	log.Info("receiver connected",
		"host", cfg.Device.Host,
		"port", cfg.Device.Port,
		"inputs_found", avrClient.Stats().InputsFound,
	)

	avrBridge, err := startBridge(ctx, cfg, mqttClient, avrClient, historyRepo, influxClient, log)
	if err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer func() {
		log.Info("stopping bridge")
		avrBridge.Stop()
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred cleanup unwinds in reverse: bridge, receiver, InfluxDB,
	// MQTT, database.

	log.Info("AVR bridge stopped")
	return nil
}

// getConfigPath resolves the config file location: AVRBRIDGE_CONFIG when
// set, the packaged default otherwise.
func getConfigPath() string {
	if path := os.Getenv("AVRBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// startBridge assembles bridge.Options from the wired infrastructure and
// starts the bridge. influxClient may be nil when telemetry is disabled.
func startBridge(ctx context.Context, cfg *config.Config, mqttClient *mqtt.Client, avrClient *avr.Client, historyRepo history.Repository, influxClient *influxdb.Client, log *logging.Logger) (*bridge.Bridge, error) {
	opts := bridge.Options{
		DeviceID:      cfg.Device.ID,
		Zones:         cfg.Device.Zones,
		Version:       version,
		Address:       fmt.Sprintf("%s:%d", cfg.Device.Host, cfg.Device.Port),
		QoS:           byte(cfg.MQTT.QoS),
		MQTTClient:    &mqttBridgeAdapter{client: mqttClient},
		AVRClient:     avrClient,
		Logger:        log.With("component", "bridge"),
		History:       historyRepo,
		RetentionDays: cfg.History.RetentionDays,
	}

	// A nil *influxdb.Client must not end up inside a non-nil interface.
	if influxClient != nil {
		opts.Metrics = influxClient
	}

	avrBridge, err := bridge.New(opts)
	if err != nil {
		return nil, fmt.Errorf("creating bridge: %w", err)
	}

	if err := avrBridge.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting bridge: %w", err)
	}
	log.Info("bridge started", "device_id", cfg.Device.ID, "zones", cfg.Device.Zones)

	return avrBridge, nil
}

// healthCheck probes each wired backend once, returning the first failure.
// The receiver needs no probe here: Connect() has already completed the
// handshake by the time this runs.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// mqttBridgeAdapter bridges the Subscribe handler signature mismatch: the
// infrastructure client's handlers return an error, the bridge's do not.
// Publish and IsConnected pass straight through.
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

// Publish implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// IsConnected implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}
