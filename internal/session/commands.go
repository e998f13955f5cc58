package session

import (
	"fmt"

	"github.com/stblassitude/xpressnet/internal/protocol"
)

// Interface query subcommands carried in the first parameter byte of an
// interface command.
const (
	interfaceQueryStatus      = 0x01
	interfaceQueryVersion     = 0x02
	interfaceQueryConnections = 0x03
)

// Track power and emergency subcommands.
const (
	trackPowerOff    = 0x80
	trackPowerOn     = 0x81
	emergencyStopAll = 0x80
)

// InterfaceVersion queries the interface for its hardware and firmware
// versions, returned as a combined BCD string like "1.0, 2.3".
func (s *Session) InterfaceVersion() (string, error) {
	msg, err := s.CmdExpect(protocol.CodeInterface, nil, protocol.CodeInterfaceStatus)
	if err != nil {
		return "", err
	}
	result, err := commandResult(msg, 2)
	if err != nil {
		return "", fmt.Errorf("interface version: %w", err)
	}
	return fmt.Sprintf("%s, %s",
		protocol.BCDString(result.Payload[0]),
		protocol.BCDString(result.Payload[1])), nil
}

// InterfaceStatus reports whether the interface considers its connection to
// the command station operational.
func (s *Session) InterfaceStatus() (bool, error) {
	msg, err := s.Cmd(protocol.CodeInterface, []byte{interfaceQueryStatus})
	if err != nil {
		return false, err
	}
	result, err := commandResult(msg, 1)
	if err != nil {
		return false, fmt.Errorf("interface status: %w", err)
	}
	return result.Payload[0]&0x01 == 0x01, nil
}

// XpressNetVersion queries the protocol version spoken on the bus, as a
// BCD string like "3.6".
func (s *Session) XpressNetVersion() (string, error) {
	msg, err := s.Cmd(protocol.CodeInterface, []byte{interfaceQueryVersion})
	if err != nil {
		return "", err
	}
	result, err := commandResult(msg, 1)
	if err != nil {
		return "", fmt.Errorf("protocol version: %w", err)
	}
	return protocol.BCDString(result.Payload[0]), nil
}

// AvailableConnections reports how many further bus devices the interface
// can still accommodate.
func (s *Session) AvailableConnections() (int, error) {
	msg, err := s.Cmd(protocol.CodeInterface, []byte{interfaceQueryConnections})
	if err != nil {
		return 0, err
	}
	result, err := commandResult(msg, 1)
	if err != nil {
		return 0, fmt.Errorf("available connections: %w", err)
	}
	return int(result.Payload[0]), nil
}

// InterfaceAddress reads the interface's bus address.
func (s *Session) InterfaceAddress() (int, error) {
	msg, err := s.Cmd(protocol.CodeInterface, []byte{interfaceQueryStatus, 0x00})
	if err != nil {
		return 0, err
	}
	result, err := commandResult(msg, 1)
	if err != nil {
		return 0, fmt.Errorf("interface address: %w", err)
	}
	return int(result.Payload[0]), nil
}

// TrackPowerOn resumes normal operation on the layout.
func (s *Session) TrackPowerOn() error {
	_, err := s.Cmd(protocol.CodeProgramming, []byte{trackPowerOn})
	return err
}

// TrackPowerOff switches off track power layout-wide.
func (s *Session) TrackPowerOff() error {
	_, err := s.Cmd(protocol.CodeProgramming, []byte{trackPowerOff})
	return err
}

// EmergencyStopAll halts every locomotive while leaving track power on.
func (s *Session) EmergencyStopAll() error {
	_, err := s.Cmd(protocol.CodeAllLocos, []byte{emergencyStopAll})
	return err
}

// AccessoryInfo queries the state of an accessory decoder group. Each
// decoder address covers eight outputs split into two nibbles; nibble 0
// selects the lower four, nibble 1 the upper four.
func (s *Session) AccessoryInfo(address byte, nibble byte) (*protocol.AccessoryState, error) {
	msg, err := s.Cmd(protocol.CodeAccessoryReport, []byte{address, nibble & 0x01})
	if err != nil {
		return nil, err
	}
	state, ok := msg.(*protocol.AccessoryState)
	if !ok {
		return nil, fmt.Errorf("accessory info: unexpected reply %s", msg)
	}
	return state, nil
}

// SwitchAccessory activates or deactivates one output of an accessory
// decoder. output selects the output within the decoder's group (0-7).
// The command station acknowledges with the resulting accessory state,
// which is returned to the caller.
func (s *Session) SwitchAccessory(address byte, output byte, activate bool) (protocol.Message, error) {
	data := byte(0x80) | (output & 0x07)
	if activate {
		data |= 0x08
	}
	return s.CmdExpect(protocol.CodeAccessoryControl,
		[]byte{address, data}, protocol.CodeAccessoryReport)
}

// ReadCV reads a configuration variable from a decoder on the programming
// track using direct CV mode. cv must be in 1..256; 256 is sent as the
// wire value 0. The read is two round trips: the read request itself, then
// a service mode results request that carries the value back.
func (s *Session) ReadCV(cv int) (*protocol.ProgrammingResult, error) {
	if cv < 1 || cv > 256 {
		return nil, fmt.Errorf("cv %d out of range 1..256", cv)
	}
	if _, err := s.Cmd(protocol.CodeProgramming, []byte{0x15, byte(cv & 0xFF)}); err != nil {
		return nil, err
	}
	msg, err := s.CmdExpect(protocol.CodeProgramming, []byte{0x10}, protocol.CodeStatus)
	if err != nil {
		return nil, err
	}
	result, ok := msg.(*protocol.ProgrammingResult)
	if !ok {
		return nil, fmt.Errorf("cv read: unexpected reply %s", msg)
	}
	return result, nil
}

// commandResult narrows a response to a CommandResult with at least n
// payload bytes, surfacing protocol-level error statuses.
func commandResult(msg protocol.Message, n int) (*protocol.CommandResult, error) {
	result, ok := msg.(*protocol.CommandResult)
	if !ok {
		return nil, fmt.Errorf("unexpected reply %s", msg)
	}
	if result.Status != protocol.StatusOK {
		return nil, fmt.Errorf("interface reported %s", result.Status)
	}
	if len(result.Payload) < n {
		return nil, fmt.Errorf("reply too short: %d bytes, want %d", len(result.Payload), n)
	}
	return result, nil
}
