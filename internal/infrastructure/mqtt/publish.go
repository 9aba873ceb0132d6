package mqtt

import (
	"fmt"
)

// maxPayloadSize caps publishes at 1MB, in line with common broker
// defaults. Bridge messages are small JSON documents, so hitting this
// indicates a bug rather than a real payload.
const maxPayloadSize = 1 << 20

// Publish sends payload to topic and waits (bounded) for the broker ack.
//
// Retained messages are used for state topics - zone state, device info,
// health - so that a subscriber joining later immediately sees the
// current values. Commands, acks, and responses are published
// unretained.
//
//	topic := mqtt.Topics{}.DeviceCommand("living-room-avr")
//	err := client.Publish(topic, []byte(`{"action":"power_on","zone":1}`), 1, false)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishString publishes a string payload.
func (c *Client) PublishString(topic string, payload string, qos byte, retained bool) error {
	return c.Publish(topic, []byte(payload), qos, retained)
}

// PublishRetained publishes a retained message at the configured default
// QoS. Shorthand for state topics.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, byte(c.cfg.QoS), true)
}
