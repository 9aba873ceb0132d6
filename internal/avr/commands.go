package avr

import (
	"context"
	"fmt"
	"time"
)

// Protocol limits and command constants.
const (
	// volumeMinDB and volumeMaxDB bound the receiver's absolute volume
	// range; out-of-range requests are clamped before encoding.
	volumeMinDB = -90
	volumeMaxDB = 0

	// echoOffCommand suppresses the receiver echoing back every command
	// verbatim, leaving only genuine status notifications on the wire.
	echoOffCommand = "ECH0"

	// interQueryDelay paces consecutive status queries so the receiver's
	// input buffer is not overrun.
	interQueryDelay = 100 * time.Millisecond
)

// Command encoders. These are pure formatting functions so the wire
// grammar can be tested without a socket.

// PowerCommand encodes a zone power on/off command (Z<n>POW<0|1>).
func PowerCommand(zone int, on bool) string {
	return fmt.Sprintf("Z%dPOW%d", zone, boolDigit(on))
}

// VolumeCommand encodes an absolute volume set in dB (Z<n>VOL<dB>),
// clamping the value to the receiver's [-90, 0] range.
func VolumeCommand(zone, volumeDB int) string {
	if volumeDB < volumeMinDB {
		volumeDB = volumeMinDB
	}
	if volumeDB > volumeMaxDB {
		volumeDB = volumeMaxDB
	}
	return fmt.Sprintf("Z%dVOL%d", zone, volumeDB)
}

// VolumeUpCommand encodes a single-step volume increase (Z<n>VUP).
func VolumeUpCommand(zone int) string {
	return fmt.Sprintf("Z%dVUP", zone)
}

// VolumeDownCommand encodes a single-step volume decrease (Z<n>VDN).
func VolumeDownCommand(zone int) string {
	return fmt.Sprintf("Z%dVDN", zone)
}

// MuteCommand encodes a zone mute set (Z<n>MUT<0|1>).
func MuteCommand(zone int, muted bool) string {
	return fmt.Sprintf("Z%dMUT%d", zone, boolDigit(muted))
}

// InputCommand encodes a zone input selection (Z<n>INP<index>).
func InputCommand(zone, input int) string {
	return fmt.Sprintf("Z%dINP%d", zone, input)
}

// QueryPowerCommand encodes a zone power query (Z<n>POW?).
func QueryPowerCommand(zone int) string {
	return fmt.Sprintf("Z%dPOW?", zone)
}

// QueryVolumeCommand encodes a zone volume query (Z<n>VOL?).
func QueryVolumeCommand(zone int) string {
	return fmt.Sprintf("Z%dVOL?", zone)
}

// QueryMuteCommand encodes a zone mute query (Z<n>MUT?).
func QueryMuteCommand(zone int) string {
	return fmt.Sprintf("Z%dMUT?", zone)
}

// QueryInputCommand encodes a zone input query (Z<n>INP?).
func QueryInputCommand(zone int) string {
	return fmt.Sprintf("Z%dINP?", zone)
}

// QueryModelCommand encodes the device model query (IDM?).
func QueryModelCommand() string {
	return "IDM?"
}

// InputNameQueryCommand encodes an input-name query (ISN<n>?).
func InputNameQueryCommand(index int) string {
	return fmt.Sprintf("ISN%d?", index)
}

func boolDigit(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Client command methods. Each returns true if the command was written to
// the socket; the resulting state change arrives later as a notification.

// PowerOn switches a zone on.
func (c *Client) PowerOn(zone int) bool {
	return c.SendCommand(PowerCommand(zone, true))
}

// PowerOff switches a zone off.
func (c *Client) PowerOff(zone int) bool {
	return c.SendCommand(PowerCommand(zone, false))
}

// SetVolume sets a zone's absolute volume in dB, clamped to [-90, 0].
func (c *Client) SetVolume(zone, volumeDB int) bool {
	return c.SendCommand(VolumeCommand(zone, volumeDB))
}

// VolumeUp raises a zone's volume by one receiver step.
func (c *Client) VolumeUp(zone int) bool {
	return c.SendCommand(VolumeUpCommand(zone))
}

// VolumeDown lowers a zone's volume by one receiver step.
func (c *Client) VolumeDown(zone int) bool {
	return c.SendCommand(VolumeDownCommand(zone))
}

// SetMute sets a zone's mute flag.
func (c *Client) SetMute(zone int, muted bool) bool {
	return c.SendCommand(MuteCommand(zone, muted))
}

// SelectInput selects a zone's input by slot index.
func (c *Client) SelectInput(zone, input int) bool {
	return c.SendCommand(InputCommand(zone, input))
}

// QueryPower requests a zone's power state.
func (c *Client) QueryPower(zone int) bool {
	return c.SendCommand(QueryPowerCommand(zone))
}

// QueryVolume requests a zone's volume.
func (c *Client) QueryVolume(zone int) bool {
	return c.SendCommand(QueryVolumeCommand(zone))
}

// QueryMute requests a zone's mute state.
func (c *Client) QueryMute(zone int) bool {
	return c.SendCommand(QueryMuteCommand(zone))
}

// QueryInput requests a zone's selected input.
func (c *Client) QueryInput(zone int) bool {
	return c.SendCommand(QueryInputCommand(zone))
}

// QueryModel requests the device model string.
func (c *Client) QueryModel() bool {
	return c.SendCommand(QueryModelCommand())
}

// QueryAll issues the four per-zone status queries in sequence with a
// small inter-command delay to avoid flooding the receiver. Returns false
// if the context is cancelled or any query fails to send.
func (c *Client) QueryAll(ctx context.Context, zone int) bool {
	queries := []string{
		QueryPowerCommand(zone),
		QueryVolumeCommand(zone),
		QueryMuteCommand(zone),
		QueryInputCommand(zone),
	}

	for i, q := range queries {
		if !c.SendCommand(q) {
			return false
		}
		if i == len(queries)-1 {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(interQueryDelay):
		}
	}
	return true
}
