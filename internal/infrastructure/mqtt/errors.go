package mqtt

import "errors"

// Sentinel errors for broker operations; match with errors.Is.
var (
	// ErrNotConnected: the operation needs a live broker session.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionFailed: the initial dial did not produce a session.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishFailed: the broker did not accept a publish.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed: the broker did not accept a subscription.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed: the broker did not accept an unsubscribe.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS: QoS outside 0..2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic: empty or malformed topic string.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")

	// ErrTimeout: the broker did not answer within the deadline.
	ErrTimeout = errors.New("mqtt: operation timed out")
)
