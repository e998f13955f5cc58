// Package session implements the command/response engine on top of the
// XpressNet frame codec.
//
// A Session owns exactly one transport connection and runs the protocol's
// stop-and-wait discipline: Cmd writes one command frame and blocks until
// the matching direct response arrives. Broadcasts received while waiting
// are absorbed into the session state (last broadcast, track power) and
// never resolve a pending command; they are a side channel that polling
// consumers read back through LastBroadcast and TrackPower.
//
// Frames that fail checksum verification are logged and skipped, with the
// read loop resynchronizing on the next preamble. All other errors
// propagate to the caller of Cmd or ReceiveOne; the session never retries
// or reconnects on its own.
//
// A Session is not safe for concurrent use. Interleaved commands from
// multiple goroutines would corrupt request/response correlation, so a
// connection must be driven by a single logical reader. The cached state
// getters are the only methods safe to call from other goroutines.
package session
