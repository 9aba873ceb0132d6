// Package mqtt connects the bridge to its broker.
//
// It wraps paho.mqtt.golang with the pieces the bridge relies on:
//
//   - auto-reconnect, with tracked subscriptions replayed after each
//     reconnect
//   - a retained presence topic plus a last will, so consumers can tell
//     a clean shutdown from a crash
//   - publish-side validation (topic, QoS, payload size)
//   - panic recovery around message handlers
//
// The broker sits between home-automation consumers and the receiver's
// single TCP control session:
//
//	Consumers ↔ MQTT Broker ↔ AVR Bridge ↔ Receiver (TCP)
//
// Zone state leaves the bridge as retained per-zone topics; commands and
// requests arrive on per-device topics. Topic construction lives in
// Topics so the shapes stay in one place.
//
// TLS is expected anywhere beyond a development broker; payloads carry
// no encryption of their own.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllZoneStates(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("%s = %s", topic, payload)
//	        return nil
//	    })
//
//	topic := mqtt.Topics{}.DeviceCommand("living-room-avr")
//	client.Publish(topic, []byte(`{"action":"power_on","zone":1}`), 1, false)
package mqtt
