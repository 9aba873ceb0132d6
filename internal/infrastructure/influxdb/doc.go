// Package influxdb ships the bridge's telemetry to InfluxDB using the
// official influxdb-client-go v2 library.
//
// Two kinds of points flow through it: zone telemetry (volume, power,
// active input) and receiver link statistics (connection state, traffic
// counters). Writes go through the client's non-blocking batched API —
// batch size and flush interval come from config.yaml — and async write
// failures surface through the SetOnError callback rather than as
// return values. When the client is disabled or disconnected, write
// helpers drop their points silently; telemetry must never stall the
// state path.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteZoneMetric("living-room-avr", 1, "volume_db", -32.0)
//
// All methods are safe for concurrent use.
package influxdb
