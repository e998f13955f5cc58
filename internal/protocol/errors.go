package protocol

import "fmt"

// ChecksumError reports an inbound frame whose trailing checksum byte does
// not match the XOR of header and payload. It is recoverable: the caller
// discards the frame and resynchronizes on the next preamble.
type ChecksumError struct {
	Code     CommandCode // command code of the implicated frame
	Expected byte        // checksum computed over header and payload
	Actual   byte        // trailing byte received on the wire
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for command 0x%02X: computed 0x%02X, received 0x%02X",
		byte(e.Code), e.Expected, e.Actual)
}

// UnrecognizedPreambleError reports a preamble that is neither the direct
// response nor the broadcast marker. The stream is desynchronized and must
// be considered unusable.
type UnrecognizedPreambleError struct {
	Preamble uint16
}

func (e *UnrecognizedPreambleError) Error() string {
	return fmt.Sprintf("unrecognized preamble 0x%04X", e.Preamble)
}

// UnknownMessageError reports a command-code/subcode combination that is
// not in the decode table.
type UnknownMessageError struct {
	Code    CommandCode
	Subcode byte
}

func (e *UnknownMessageError) Error() string {
	return fmt.Sprintf("unknown message 0x%02X/0x%02X", byte(e.Code), e.Subcode)
}

// UnexpectedResponseError reports a direct response whose command code does
// not match the caller's expectation.
type UnexpectedResponseError struct {
	Got  CommandCode
	Want CommandCode
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("response code 0x%02X != expected 0x%02X", byte(e.Got), byte(e.Want))
}

// EncodingConstraintError reports an outbound command whose parameter count
// exceeds the 15-byte wire limit. It is raised before anything is written.
type EncodingConstraintError struct {
	Count int
}

func (e *EncodingConstraintError) Error() string {
	return fmt.Sprintf("too many parameter bytes: %d (maximum %d)", e.Count, MaxParams)
}
