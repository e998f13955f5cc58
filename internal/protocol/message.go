package protocol

import "fmt"

// StatusCode is a fine-grained outcome reported by the interface or the
// command station. The low range rides on InterfaceStatus (0x00) replies
// as communication statuses; the 0x1x range rides on programming-family
// replies. A few values are shared numerically between the two families
// and are disambiguated by the command code that carries them.
type StatusCode byte

const (
	StatusOK               StatusCode = 0x00
	StatusWrongByteCount   StatusCode = 0x01
	StatusTimeout          StatusCode = 0x02
	StatusSent             StatusCode = 0x04 // command handed to the command station
	StatusNotAddressing    StatusCode = 0x05 // interface no longer receives a timeslot
	StatusBufferOverflow   StatusCode = 0x06
	StatusAddressingAgain  StatusCode = 0x07
	StatusUnableToReceive  StatusCode = 0x08
	StatusInvalidParameter StatusCode = 0x09

	StatusReady        StatusCode = 0x11 // programming family
	StatusShortCircuit StatusCode = 0x12
	StatusNotFound     StatusCode = 0x13
	StatusBusy         StatusCode = 0x1F
)

// String returns a human-readable name for the status code.
func (s StatusCode) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWrongByteCount:
		return "wrong number of bytes"
	case StatusTimeout:
		return "timeout"
	case StatusSent:
		return "sent to command station"
	case StatusNotAddressing:
		return "interface not being addressed"
	case StatusBufferOverflow:
		return "buffer overflow"
	case StatusAddressingAgain:
		return "interface addressed again"
	case StatusUnableToReceive:
		return "unable to receive"
	case StatusInvalidParameter:
		return "invalid parameter"
	case StatusReady:
		return "ready"
	case StatusShortCircuit:
		return "short circuit"
	case StatusNotFound:
		return "not found"
	case StatusBusy:
		return "busy"
	default:
		return fmt.Sprintf("unknown error (0x%02X)", byte(s))
	}
}

// TrackState is the track power state reported by status broadcasts.
type TrackState byte

const (
	TrackOff         TrackState = 0x00
	TrackOn          TrackState = 0x01
	TrackProgramming TrackState = 0x02
)

// String returns a human-readable name for the track state.
func (t TrackState) String() string {
	switch t {
	case TrackOff:
		return "off"
	case TrackOn:
		return "on"
	case TrackProgramming:
		return "programming"
	default:
		return fmt.Sprintf("unknown(0x%02X)", byte(t))
	}
}

// AccessoryKind classifies an accessory decoder in an accessory report.
type AccessoryKind byte

const (
	AccessoryOutputNoFeedback   AccessoryKind = 0
	AccessoryOutputWithFeedback AccessoryKind = 1
	AccessoryInput              AccessoryKind = 2
	AccessoryReserved           AccessoryKind = 3
)

// String returns a human-readable name for the accessory kind.
func (k AccessoryKind) String() string {
	switch k {
	case AccessoryOutputNoFeedback:
		return "output without feedback"
	case AccessoryOutputWithFeedback:
		return "output with feedback"
	case AccessoryInput:
		return "input"
	case AccessoryReserved:
		return "reserved"
	default:
		return fmt.Sprintf("unknown(%d)", byte(k))
	}
}

// Message is a decoded protocol message.
type Message interface {
	Code() CommandCode
	String() string
}

// CommandResult carries a generic reply: a status plus any payload bytes
// that came with it. Replies with command code 0x00 are "non-immediate"
// results whose interpretation depends on the command that solicited them.
type CommandResult struct {
	Cmd     CommandCode
	Status  StatusCode
	Payload []byte
}

func (m *CommandResult) Code() CommandCode { return m.Cmd }

func (m *CommandResult) String() string {
	return fmt.Sprintf("CommandResult{code=0x%02X, status=%s, payload=% X}",
		byte(m.Cmd), m.Status, m.Payload)
}

// ProgrammingResult is the value read back for a configuration variable in
// service mode. CV numbers run 0-1024.
type ProgrammingResult struct {
	CV    int
	Value byte
}

func (m *ProgrammingResult) Code() CommandCode { return CodeStatus }

func (m *ProgrammingResult) String() string {
	return fmt.Sprintf("ProgrammingResult{cv=%d, value=%d}", m.CV, m.Value)
}

// AccessoryState is the decoded accessory decoder information response.
type AccessoryState struct {
	Address      byte
	Undetermined bool // decoder has not completed the last operation
	Kind         AccessoryKind
	Nibble       byte // 0 or 1, which half of the decoder is reported
	State        [4]bool
}

func (m *AccessoryState) Code() CommandCode { return CodeAccessoryReport }

func (m *AccessoryState) String() string {
	return fmt.Sprintf("AccessoryState{address=%d, kind=%s, nibble=%d, undetermined=%v, state=%v}",
		m.Address, m.Kind, m.Nibble, m.Undetermined, m.State)
}

// TrackStatus is the track power broadcast.
type TrackStatus struct {
	State TrackState
}

func (m *TrackStatus) Code() CommandCode { return CodeStatus }

func (m *TrackStatus) String() string {
	return fmt.Sprintf("TrackStatus{%s}", m.State)
}

// Programming response subcodes select the CV bank the reported number
// belongs to.
const (
	progSubcode3Byte = 0x10 // CV as given
	progSubcodeCV1   = 0x14 // CV 1-255; cv byte 0 means CV 1024
	progSubcodeCV256 = 0x15 // CV 256-511
	progSubcodeCV512 = 0x16 // CV 512-767
	progSubcodeCV768 = 0x17 // CV 768-1023
)

// Interface reply subcodes carried in CodeInterface responses.
const (
	interfaceSubStatus      = 0x01
	interfaceSubVersion     = 0x02
	interfaceSubConnections = 0x03
)

// DecodeMessage interprets a checksum-verified frame into a typed message.
// Dispatch is on the command code plus, for the status family, whether the
// frame arrived as a broadcast. Combinations outside the table yield an
// UnknownMessageError.
func DecodeMessage(f *Frame) (Message, error) {
	switch f.Code {
	case CodeInterfaceStatus:
		return decodeCommandStatus(f)
	case CodeStatus:
		if f.Broadcast() {
			return decodeTrackStatus(f)
		}
		return decodeProgrammingResult(f)
	case CodeInterface:
		return decodeInterfaceReply(f)
	case CodeAccessoryReport:
		return decodeAccessoryState(f)
	default:
		var sub byte
		if len(f.Payload) > 0 {
			sub = f.Payload[0]
		}
		return nil, &UnknownMessageError{Code: f.Code, Subcode: sub}
	}
}

// decodeCommandStatus handles code 0x00 replies. A single payload byte is a
// communication status; anything else is a non-immediate result whose
// payload the caller interprets.
func decodeCommandStatus(f *Frame) (Message, error) {
	status := StatusOK
	if len(f.Payload) == 1 {
		status = StatusCode(f.Payload[0])
	}
	return &CommandResult{Cmd: f.Code, Status: status, Payload: f.Payload}, nil
}

func decodeProgrammingResult(f *Frame) (Message, error) {
	if len(f.Payload) < 3 {
		return nil, fmt.Errorf("programming result payload too short: %d bytes (want 3)", len(f.Payload))
	}
	subcode, cv, value := f.Payload[0], int(f.Payload[1]), f.Payload[2]

	switch subcode {
	case progSubcode3Byte:
		// cv as given
	case progSubcodeCV1:
		if cv == 0 {
			cv = 1024
		}
	case progSubcodeCV256:
		cv += 256
	case progSubcodeCV512:
		cv += 512
	case progSubcodeCV768:
		cv += 768
	default:
		return nil, &UnknownMessageError{Code: f.Code, Subcode: subcode}
	}
	return &ProgrammingResult{CV: cv, Value: value}, nil
}

func decodeTrackStatus(f *Frame) (Message, error) {
	if len(f.Payload) != 1 {
		return nil, fmt.Errorf("track status payload length %d (want 1)", len(f.Payload))
	}
	state := TrackState(f.Payload[0])
	switch state {
	case TrackOff, TrackOn, TrackProgramming:
		return &TrackStatus{State: state}, nil
	default:
		return nil, &UnknownMessageError{Code: f.Code, Subcode: f.Payload[0]}
	}
}

func decodeInterfaceReply(f *Frame) (Message, error) {
	if len(f.Payload) < 1 {
		return nil, fmt.Errorf("interface reply has empty payload")
	}
	switch f.Payload[0] {
	case interfaceSubStatus, interfaceSubVersion, interfaceSubConnections:
		return &CommandResult{Cmd: f.Code, Status: StatusOK, Payload: f.Payload[1:]}, nil
	default:
		return nil, &UnknownMessageError{Code: f.Code, Subcode: f.Payload[0]}
	}
}

// decodeAccessoryState unpacks the two-byte accessory information response.
// Byte 0 is the decoder address. Byte 1: bit 7 flags an operation that has
// not completed, bits 6-5 are the decoder kind, bit 4 selects the nibble,
// bits 3-0 are the four state bits.
func decodeAccessoryState(f *Frame) (Message, error) {
	if len(f.Payload) < 2 {
		return nil, fmt.Errorf("accessory report payload too short: %d bytes (want 2)", len(f.Payload))
	}
	flags := f.Payload[1]
	msg := &AccessoryState{
		Address:      f.Payload[0],
		Undetermined: flags&0x80 != 0,
		Kind:         AccessoryKind(flags >> 5 & 0x03),
		Nibble:       flags >> 4 & 0x01,
	}
	for i := 0; i < 4; i++ {
		msg.State[i] = flags&(1<<i) != 0
	}
	return msg, nil
}

// BCD splits a byte encoding two independent decimal digits into its high
// and low nibbles. Nibbles above 9 pass through unmodified; the protocol's
// version fields never validate them and neither do we.
func BCD(b byte) (hi, lo byte) {
	return b >> 4, b & 0x0F
}

// BCDString formats a BCD byte as "high.low", the display form used for
// version and address fields.
func BCDString(b byte) string {
	hi, lo := BCD(b)
	return fmt.Sprintf("%d.%d", hi, lo)
}
