// Package protocol implements the XpressNet binary serial-over-TCP protocol.
//
// This package handles construction, parsing, and validation of the frames
// exchanged with an XpressNet interface (LI101, LIUSB-Ethernet, and
// compatible bridges) that connects a PC to a model railroad command
// station.
//
// # Wire Format
//
// Every frame starts with a two-byte preamble that tells direct responses
// apart from unsolicited broadcasts:
//   - 0xFF 0xFE: direct response to the most recent command (also the
//     preamble used for outbound commands)
//   - 0xFF 0xFD: broadcast
//
// The preamble is followed by a header byte whose upper nibble is the
// command code and whose lower nibble is the payload byte count (0-15),
// then the payload, then a single XOR checksum byte.
//
// The checksum convention is asymmetric: outbound frames checksum the
// parameter bytes only, while inbound frames checksum the header byte
// together with the payload. This is an observed property of the protocol
// and is preserved exactly.
//
// # Usage Example
//
//	buf, err := protocol.Encode(protocol.CodeInterface, []byte{0x01})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// write buf to the interface, then:
//	frame, err := protocol.ReadFrame(conn)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	msg, err := protocol.DecodeMessage(frame)
//
// # Error Handling
//
// The package distinguishes recoverable framing errors (ChecksumError,
// which callers handle by resynchronizing on the next preamble) from fatal
// stream errors (UnrecognizedPreambleError) and decode errors
// (UnknownMessageError). All error types support errors.As.
//
// # Thread Safety
//
// All encoding and decoding functions are stateless and safe for
// concurrent use.
package protocol
