// Package avr implements the client for Anthem-protocol A/V receivers.
//
// Anthem receivers speak a line-oriented ASCII protocol over a persistent
// TCP socket: the client writes CR-terminated command and query strings,
// and the receiver emits single-line status notifications asynchronously.
// A query never gets a synchronous reply; the answer arrives later as a
// notification on the same socket, interleaved with unsolicited updates.
//
// # Architecture
//
//	┌──────────────┐   commands    ┌──────────────┐
//	│    Caller    │──────────────►│    Client    │──── TCP ───► Receiver
//	│ (bridge etc) │◄──────────────│  (this pkg)  │◄─── TCP ──── Receiver
//	└──────────────┘  cache reads  └──────────────┘
//	                  + raw-line callback
//
// # Key Responsibilities
//
//   - Connect to the receiver with bounded retries and a per-attempt timeout
//   - Run a background read loop that frames the byte stream into lines
//   - Parse notifications into typed updates and maintain the state cache
//   - Discover human-readable input names at connection time
//   - Encode outbound commands for zone power, volume, mute, and input
//
// # State Cache
//
// The cache holds the last-known value for each observed key: device-wide
// identity strings, the input-name table, and per-zone power/volume/mute/
// input/audio-format records. A key is present only after the receiver has
// reported it at least once; absence means unknown. Commands never write
// the cache — the receiver's echoed notification is the sole source of
// truth.
//
// # Thread Safety
//
// All exported methods are safe for concurrent use. Connect and Disconnect
// are mutually exclusive; the update callback is invoked from the read
// loop goroutine.
package avr
