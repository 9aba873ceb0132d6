// Package logging is a thin layer over log/slog that gives every
// component the same structured output.
//
// New builds a logger from the config's logging block — JSON for
// machines, text for humans, stdout or stderr, level-filtered — and
// stamps service and version attributes on every record. Default
// returns a bootstrap logger for use before configuration is loaded.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting service", "device", cfg.Device.Name)
//
// Keep secrets out of log fields.
package logging
