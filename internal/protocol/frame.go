package protocol

import (
	"fmt"
	"io"
)

// Preamble values distinguishing direct responses from broadcasts.
const (
	PreambleDirect    uint16 = 0xFFFE // direct response to the most recent command
	PreambleBroadcast uint16 = 0xFFFD // unsolicited broadcast
)

// MaxParams is the maximum number of parameter bytes in a single command.
// The payload length is encoded in the lower nibble of the header byte.
const MaxParams = 15

// CommandCode identifies a message family. Only the upper nibble carries
// meaning; the lower nibble of the header byte is the payload length and
// must be masked off before comparison.
type CommandCode byte

const (
	CodeInterfaceStatus  CommandCode = 0x00 // communication status / non-immediate replies
	CodeProgramming      CommandCode = 0x20 // programming and common requests
	CodeAccessoryReport  CommandCode = 0x40 // accessory decoder information
	CodeAccessoryControl CommandCode = 0x50 // accessory decoder operation
	CodeStatus           CommandCode = 0x60 // programming results and track status
	CodeAllLocos         CommandCode = 0x80 // commands addressing every locomotive
	CodeLoco             CommandCode = 0xE0 // single locomotive control
	CodeInterface        CommandCode = 0xF0 // interface queries
)

// Masked returns the command code with the length nibble stripped.
func (c CommandCode) Masked() CommandCode {
	return c & 0xF0
}

// String returns a human-readable name for the command code.
func (c CommandCode) String() string {
	switch c.Masked() {
	case CodeInterfaceStatus:
		return "InterfaceStatus"
	case CodeProgramming:
		return "Programming"
	case CodeAccessoryReport:
		return "AccessoryReport"
	case CodeAccessoryControl:
		return "AccessoryControl"
	case CodeStatus:
		return "Status"
	case CodeAllLocos:
		return "AllLocos"
	case CodeLoco:
		return "Loco"
	case CodeInterface:
		return "Interface"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", byte(c))
	}
}

// Frame represents a parsed inbound frame.
type Frame struct {
	Preamble uint16      // PreambleDirect or PreambleBroadcast
	Code     CommandCode // upper nibble of the header byte
	Length   int         // lower nibble of the header byte
	Payload  []byte      // payload bytes, without the trailing checksum
	Checksum byte        // trailing checksum byte as received
}

// Broadcast reports whether the frame is an unsolicited broadcast.
func (f *Frame) Broadcast() bool {
	return f.Preamble == PreambleBroadcast
}

// String returns a debug representation of the frame.
func (f *Frame) String() string {
	kind := "direct"
	if f.Broadcast() {
		kind = "broadcast"
	}
	return fmt.Sprintf("Frame{%s, code=%s, len=%d, payload=% X}", kind, f.Code, f.Length, f.Payload)
}

// Encode builds a complete outbound frame for the given command code and
// parameter bytes:
//
//	0xFF 0xFE | header(code|len) | params | XOR(params)
//
// The outbound checksum covers the parameter bytes only; the header byte is
// excluded. This is the inverse of the inbound convention and is a protocol
// property, not an oversight.
//
// More than MaxParams parameter bytes is a caller error and is rejected
// before anything touches the wire.
func Encode(code CommandCode, params []byte) ([]byte, error) {
	if len(params) > MaxParams {
		return nil, &EncodingConstraintError{Count: len(params)}
	}

	buf := make([]byte, 0, 4+len(params))
	buf = append(buf, byte(PreambleDirect>>8), byte(PreambleDirect&0xFF))
	buf = append(buf, byte(code.Masked())|byte(len(params)))
	buf = append(buf, params...)
	buf = append(buf, Checksum(params))
	return buf, nil
}

// ReadFrame reads one complete frame from r. Reads accumulate until the
// exact requested byte count is obtained; partial reads from the transport
// are expected and looped over.
//
// A checksum mismatch yields a ChecksumError after the whole frame has been
// consumed, so the caller can resynchronize by simply reading the next
// frame. An unknown preamble yields an UnrecognizedPreambleError, which is
// fatal for the stream.
func ReadFrame(r io.Reader) (*Frame, error) {
	var pre [2]byte
	if _, err := io.ReadFull(r, pre[:]); err != nil {
		return nil, fmt.Errorf("failed to read preamble: %w", err)
	}
	preamble := uint16(pre[0])<<8 | uint16(pre[1])
	if preamble != PreambleDirect && preamble != PreambleBroadcast {
		return nil, &UnrecognizedPreambleError{Preamble: preamble}
	}

	var hdr [1]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	header := hdr[0]

	frame := &Frame{
		Preamble: preamble,
		Code:     CommandCode(header).Masked(),
		Length:   int(header & 0x0F),
	}

	// Payload plus the trailing checksum byte.
	body := make([]byte, frame.Length+1)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	frame.Payload = body[:frame.Length]
	frame.Checksum = body[frame.Length]

	// Inbound checksum covers the header byte and the payload.
	expected := header ^ Checksum(frame.Payload)
	if expected != frame.Checksum {
		return nil, &ChecksumError{
			Code:     frame.Code,
			Expected: expected,
			Actual:   frame.Checksum,
		}
	}

	return frame, nil
}
