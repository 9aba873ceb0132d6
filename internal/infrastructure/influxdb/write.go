package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// All write helpers drop silently when the client is not connected:
// telemetry is optional and must never stall the state path feeding it.

// WriteZoneMetric records one numeric zone measurement under the
// zone_metrics measurement, tagged by device, zone, and metric name.
//
//	client.WriteZoneMetric("living-room-avr", 1, "volume", -32.0)
func (c *Client) WriteZoneMetric(deviceID string, zone int, measurement string, value float64) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(
		"zone_metrics",
		map[string]string{
			"device_id":   deviceID,
			"zone":        strconv.Itoa(zone),
			"measurement": measurement,
		},
		map[string]interface{}{"value": value},
		time.Now(),
	))
}

// WriteConnectionMetric records receiver link state and cumulative
// traffic counters, for graphing session stability over time.
func (c *Client) WriteConnectionMetric(deviceID string, connected bool, linesRx, commandsTx uint64) {
	if !c.IsConnected() {
		return
	}

	up := 0.0
	if connected {
		up = 1.0
	}

	c.writeAPI.WritePoint(write.NewPoint(
		"connection",
		map[string]string{"device_id": deviceID},
		map[string]interface{}{
			"up":          up,
			"lines_rx":    float64(linesRx),
			"commands_tx": float64(commandsTx),
		},
		time.Now(),
	))
}

// WritePoint records an arbitrary measurement. Tags should stay low
// cardinality; values belong in fields.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime is WritePoint with an explicit timestamp, for data
// that did not originate "now".
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
