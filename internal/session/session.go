package session

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/stblassitude/xpressnet/internal/logging"
	"github.com/stblassitude/xpressnet/internal/protocol"
	"github.com/stblassitude/xpressnet/internal/transport"
)

// Session is a single command/response connection to an XpressNet
// interface. State lives for the lifetime of the connection and is not
// shared across connections.
type Session struct {
	link string
	conn transport.Conn

	// mu guards the broadcast-fed state below so polling consumers can
	// read it while the owning goroutine drives the connection.
	mu            sync.RWMutex
	lastBroadcast protocol.Message
	trackPower    protocol.TrackState

	onBroadcast func(protocol.Message)
}

// New creates a session for the given transport link (see transport.Dial
// for accepted forms). The connection is not opened until Open is called.
func New(link string) *Session {
	return &Session{
		link:       link,
		trackPower: protocol.TrackOff,
	}
}

// NewWithConn creates a session over an already-open connection. The
// session takes ownership and closes it on Close.
func NewWithConn(conn transport.Conn) *Session {
	return &Session{
		conn:       conn,
		trackPower: protocol.TrackOff,
	}
}

// OnBroadcast registers a callback invoked for every broadcast absorbed by
// the read loop. It must be set before the first read and runs on the
// reading goroutine.
func (s *Session) OnBroadcast(fn func(protocol.Message)) {
	s.onBroadcast = fn
}

// Open dials the link and discards any stale bytes buffered on it.
func (s *Session) Open() error {
	if s.conn != nil {
		return fmt.Errorf("session already open")
	}
	logging.LogConnection(s.link, "opening")

	conn, err := transport.Dial(s.link)
	if err != nil {
		return err
	}
	if err := transport.Drain(conn); err != nil {
		conn.Close()
		return fmt.Errorf("failed to drain stale data: %w", err)
	}
	s.conn = conn
	return nil
}

// Close closes the underlying connection.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	logging.LogConnection(s.link, "closing")
	err := s.conn.Close()
	s.conn = nil
	return err
}

// Send encodes and writes a single command frame without waiting for a
// response. Parameter counts above the wire limit are rejected before
// anything is written.
func (s *Session) Send(code protocol.CommandCode, params []byte) error {
	if s.conn == nil {
		return fmt.Errorf("session not open")
	}
	buf, err := protocol.Encode(code, params)
	if err != nil {
		return err
	}
	logging.LogRawBytes("sending frame", buf)
	if _, err := s.conn.Write(buf); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

// Cmd sends a command and blocks until the matching direct response
// arrives, expecting the response to carry the same command code.
func (s *Session) Cmd(code protocol.CommandCode, params []byte) (protocol.Message, error) {
	return s.CmdExpect(code, params, code)
}

// CmdExpect sends a command and blocks until a direct response arrives.
// Broadcasts received while waiting update the session state and the wait
// continues.
//
// A response with the generic code 0x00 is returned as-is: it is the
// interface's non-immediate reply and the caller knows how to interpret
// it. Any other code must match expected or the call fails with an
// UnexpectedResponseError. One command, one round trip; retries are the
// caller's business.
func (s *Session) CmdExpect(code protocol.CommandCode, params []byte, expected protocol.CommandCode) (protocol.Message, error) {
	if err := s.Send(code, params); err != nil {
		return nil, err
	}

	for {
		msg, broadcast, err := s.readMessage()
		if err != nil {
			return nil, err
		}
		if broadcast {
			continue
		}
		if msg.Code() == protocol.CodeInterfaceStatus {
			// Non-immediate response; the payload carries the specifics.
			return msg, nil
		}
		if msg.Code() != expected.Masked() {
			return nil, &protocol.UnexpectedResponseError{Got: msg.Code(), Want: expected.Masked()}
		}
		return msg, nil
	}
}

// ReceiveOne reads the next message from the stream with no outstanding
// command and no expectation check. Broadcasts update the session state
// before being returned; it is the way to passively drain the broadcast
// side channel.
func (s *Session) ReceiveOne() (protocol.Message, error) {
	msg, _, err := s.readMessage()
	return msg, err
}

// LastBroadcast returns the most recently observed broadcast, or nil if
// none has arrived on this connection.
func (s *Session) LastBroadcast() protocol.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastBroadcast
}

// TrackPower returns the current track power state. It defaults to off and
// changes only when a track status broadcast arrives.
func (s *Session) TrackPower() protocol.TrackState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trackPower
}

// readMessage reads frames until one decodes cleanly, classifying it as a
// direct response or a broadcast. Frames with a bad checksum are logged
// and skipped; the next read resynchronizes on the following preamble.
func (s *Session) readMessage() (msg protocol.Message, broadcast bool, err error) {
	if s.conn == nil {
		return nil, false, fmt.Errorf("session not open")
	}
	for {
		frame, err := protocol.ReadFrame(s.conn)
		if err != nil {
			var checksumErr *protocol.ChecksumError
			if errors.As(err, &checksumErr) {
				logging.Warn("Discarding frame with bad checksum", zap.Error(err))
				continue
			}
			return nil, false, err
		}
		logging.Debug("Frame received", zap.String("frame", frame.String()))

		msg, err := protocol.DecodeMessage(frame)
		if err != nil {
			return nil, false, err
		}

		if frame.Broadcast() {
			s.recordBroadcast(msg)
			return msg, true, nil
		}
		return msg, false, nil
	}
}

// recordBroadcast updates the session state for a broadcast. Track status
// broadcasts additionally move the cached track power state.
func (s *Session) recordBroadcast(msg protocol.Message) {
	s.mu.Lock()
	s.lastBroadcast = msg
	if status, ok := msg.(*protocol.TrackStatus); ok {
		s.trackPower = status.State
	}
	s.mu.Unlock()

	logging.Debug("Broadcast absorbed", zap.String("message", msg.String()))
	if s.onBroadcast != nil {
		s.onBroadcast(msg)
	}
}
