package session

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stblassitude/xpressnet/internal/protocol"
)

// fakeConn scripts the interface side of a conversation: reads serve the
// prepared inbound bytes, writes are captured for inspection.
type fakeConn struct {
	inbound bytes.Buffer
	written bytes.Buffer
	closed  bool
}

func (c *fakeConn) Read(p []byte) (int, error) {
	if c.inbound.Len() == 0 {
		return 0, io.EOF
	}
	return c.inbound.Read(p)
}

func (c *fakeConn) Write(p []byte) (int, error)       { return c.written.Write(p) }
func (c *fakeConn) Close() error                      { c.closed = true; return nil }
func (c *fakeConn) SetReadDeadline(t time.Time) error { return nil }

// queueDirect appends a well-formed direct response frame to the inbound
// script.
func (c *fakeConn) queueDirect(code byte, payload ...byte) {
	c.queueFrame(0xFF, 0xFE, code, payload...)
}

// queueBroadcast appends a well-formed broadcast frame.
func (c *fakeConn) queueBroadcast(code byte, payload ...byte) {
	c.queueFrame(0xFF, 0xFD, code, payload...)
}

func (c *fakeConn) queueFrame(p0, p1, code byte, payload ...byte) {
	header := code | byte(len(payload))
	sum := header
	for _, b := range payload {
		sum ^= b
	}
	c.inbound.WriteByte(p0)
	c.inbound.WriteByte(p1)
	c.inbound.WriteByte(header)
	c.inbound.Write(payload)
	c.inbound.WriteByte(sum)
}

// queueRaw appends arbitrary bytes, for corrupt-frame scenarios.
func (c *fakeConn) queueRaw(b ...byte) {
	c.inbound.Write(b)
}

func newTestSession() (*Session, *fakeConn) {
	conn := &fakeConn{}
	return NewWithConn(conn), conn
}

func TestCmdReturnsMatchingResponse(t *testing.T) {
	s, conn := newTestSession()
	conn.queueDirect(0xF0, 0x02, 0x36)

	msg, err := s.Cmd(protocol.CodeInterface, []byte{0x02})
	if err != nil {
		t.Fatalf("Cmd() error = %v", err)
	}
	result, ok := msg.(*protocol.CommandResult)
	if !ok {
		t.Fatalf("Cmd() returned %T, want *CommandResult", msg)
	}
	if len(result.Payload) != 1 || result.Payload[0] != 0x36 {
		t.Errorf("payload = % X, want 36", result.Payload)
	}

	// The command frame must have gone out with the leading sync bytes,
	// header 0xF1 (code 0xF0, one parameter) and a params-only checksum.
	want := []byte{0xFF, 0xFE, 0xF1, 0x02, 0x02}
	if !bytes.Equal(conn.written.Bytes(), want) {
		t.Errorf("wire bytes = % X, want % X", conn.written.Bytes(), want)
	}
}

func TestCmdAbsorbsBroadcastsWhileWaiting(t *testing.T) {
	s, conn := newTestSession()
	conn.queueBroadcast(0x60, 0x01) // track power on
	conn.queueBroadcast(0x60, 0x00) // then off again
	conn.queueDirect(0xF0, 0x03, 0x05)

	msg, err := s.Cmd(protocol.CodeInterface, []byte{0x03})
	if err != nil {
		t.Fatalf("Cmd() error = %v", err)
	}
	if msg.Code() != protocol.CodeInterface {
		t.Errorf("response code = %s, want interface reply", msg.Code())
	}

	// Both broadcasts were recorded on the way; the last one wins.
	if s.TrackPower() != protocol.TrackOff {
		t.Errorf("TrackPower() = %s, want off", s.TrackPower())
	}
	last, ok := s.LastBroadcast().(*protocol.TrackStatus)
	if !ok {
		t.Fatalf("LastBroadcast() = %T, want *TrackStatus", s.LastBroadcast())
	}
	if last.State != protocol.TrackOff {
		t.Errorf("last broadcast state = %s, want off", last.State)
	}
}

func TestCmdAcceptsGenericResult(t *testing.T) {
	// A code-0x00 reply resolves any command regardless of its code.
	s, conn := newTestSession()
	conn.queueDirect(0x00, 0x01, 0x04, 0x05)

	msg, err := s.Cmd(protocol.CodeProgramming, []byte{0x81})
	if err != nil {
		t.Fatalf("Cmd() error = %v", err)
	}
	result, ok := msg.(*protocol.CommandResult)
	if !ok {
		t.Fatalf("Cmd() returned %T, want *CommandResult", msg)
	}
	if result.Cmd != protocol.CodeInterfaceStatus {
		t.Errorf("result code = %s, want generic status", result.Cmd)
	}
}

func TestCmdRejectsMismatchedResponse(t *testing.T) {
	s, conn := newTestSession()
	conn.queueDirect(0x42, 0x05, 0x22) // accessory report instead

	_, err := s.Cmd(protocol.CodeInterface, []byte{0x02})
	var mismatch *protocol.UnexpectedResponseError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Cmd() error = %v, want UnexpectedResponseError", err)
	}
	if mismatch.Got != protocol.CodeAccessoryReport || mismatch.Want != protocol.CodeInterface {
		t.Errorf("mismatch = got %s want %s", mismatch.Got, mismatch.Want)
	}
}

func TestCmdSkipsCorruptFrames(t *testing.T) {
	s, conn := newTestSession()
	// First frame carries a bad checksum; the session must discard it and
	// pick up the clean one behind it.
	conn.queueRaw(0xFF, 0xFE, 0xF1, 0x36, 0x00)
	conn.queueDirect(0xF0, 0x02, 0x36)

	msg, err := s.Cmd(protocol.CodeInterface, []byte{0x02})
	if err != nil {
		t.Fatalf("Cmd() error = %v", err)
	}
	result := msg.(*protocol.CommandResult)
	if result.Payload[0] != 0x36 {
		t.Errorf("payload = % X, want 36", result.Payload)
	}
}

func TestCmdPropagatesBadPreamble(t *testing.T) {
	s, conn := newTestSession()
	conn.queueRaw(0xDE, 0xAD, 0x00, 0x00, 0x00)

	_, err := s.Cmd(protocol.CodeInterface, nil)
	var preamble *protocol.UnrecognizedPreambleError
	if !errors.As(err, &preamble) {
		t.Fatalf("Cmd() error = %v, want UnrecognizedPreambleError", err)
	}
}

func TestCmdRejectsOversizedParamsBeforeWriting(t *testing.T) {
	s, conn := newTestSession()

	_, err := s.Cmd(protocol.CodeLoco, make([]byte, 16))
	var constraint *protocol.EncodingConstraintError
	if !errors.As(err, &constraint) {
		t.Fatalf("Cmd() error = %v, want EncodingConstraintError", err)
	}
	if conn.written.Len() != 0 {
		t.Errorf("wrote % X despite encoding failure", conn.written.Bytes())
	}
}

func TestReceiveOneReturnsBroadcast(t *testing.T) {
	s, conn := newTestSession()
	conn.queueBroadcast(0x60, 0x02)

	msg, err := s.ReceiveOne()
	if err != nil {
		t.Fatalf("ReceiveOne() error = %v", err)
	}
	status, ok := msg.(*protocol.TrackStatus)
	if !ok {
		t.Fatalf("ReceiveOne() = %T, want *TrackStatus", msg)
	}
	if status.State != protocol.TrackProgramming {
		t.Errorf("state = %s, want programming", status.State)
	}
	if s.TrackPower() != protocol.TrackProgramming {
		t.Errorf("TrackPower() = %s, want programming", s.TrackPower())
	}
}

func TestOnBroadcastCallback(t *testing.T) {
	s, conn := newTestSession()
	conn.queueBroadcast(0x60, 0x01)
	conn.queueDirect(0xF0, 0x03, 0x01)

	var seen []protocol.Message
	s.OnBroadcast(func(msg protocol.Message) {
		seen = append(seen, msg)
	})

	if _, err := s.Cmd(protocol.CodeInterface, []byte{0x03}); err != nil {
		t.Fatalf("Cmd() error = %v", err)
	}
	if len(seen) != 1 {
		t.Fatalf("callback ran %d times, want 1", len(seen))
	}
	if _, ok := seen[0].(*protocol.TrackStatus); !ok {
		t.Errorf("callback got %T, want *TrackStatus", seen[0])
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s, conn := newTestSession()
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !conn.closed {
		t.Error("connection not closed")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestSendBeforeOpenFails(t *testing.T) {
	s := New("tcp://192.0.2.1:5550")
	if err := s.Send(protocol.CodeInterface, []byte{0x01}); err == nil {
		t.Fatal("Send() on an unopened session succeeded, want error")
	}
	if _, err := s.Cmd(protocol.CodeInterface, []byte{0x01}); err == nil {
		t.Fatal("Cmd() on an unopened session succeeded, want error")
	}
}

func TestReceiveOneBeforeOpenFails(t *testing.T) {
	s := New("tcp://192.0.2.1:5550")
	if _, err := s.ReceiveOne(); err == nil {
		t.Fatal("ReceiveOne() on an unopened session succeeded, want error")
	}
}

func TestTrackPowerDefaultsToOff(t *testing.T) {
	s, _ := newTestSession()
	if s.TrackPower() != protocol.TrackOff {
		t.Errorf("TrackPower() = %s, want off before any broadcast", s.TrackPower())
	}
	if s.LastBroadcast() != nil {
		t.Errorf("LastBroadcast() = %v, want nil", s.LastBroadcast())
	}
}
