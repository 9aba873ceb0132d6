package avr

import "errors"

// Domain errors for the AVR client package.
var (
	// ErrNotConnected is returned when an operation requires a connection
	// but the client is not connected to the receiver.
	ErrNotConnected = errors.New("avr: not connected to receiver")

	// ErrConnectionFailed is returned when the connection to the receiver
	// could not be established within the retry budget.
	ErrConnectionFailed = errors.New("avr: connection to receiver failed")

	// ErrWriteFailed is returned when writing a command to the socket fails.
	ErrWriteFailed = errors.New("avr: command write failed")
)
