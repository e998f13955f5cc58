// Package transport provides the byte-stream link to an XpressNet
// interface. The protocol core treats the link as an abstract ordered
// stream with blocking reads, writes, and a resettable read deadline;
// this package supplies that stream over TCP (LIUSB-Ethernet and
// compatible bridges) or a local serial port (LI101).
package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/tarm/serial"
)

const (
	// serialBaud is the fixed LI101 line rate.
	serialBaud = 9600

	// keepAlivePeriod keeps long-idle TCP links to the interface open.
	keepAlivePeriod = 30 * time.Second

	// drainTimeout bounds how long Drain waits for stale bytes.
	drainTimeout = 1 * time.Second
)

// ErrDeadlineUnsupported is returned by SetReadDeadline on links that
// cannot change their timeout after opening (serial ports).
var ErrDeadlineUnsupported = errors.New("transport: read deadline not supported on this link")

// Conn is the byte stream the protocol core reads frames from. The zero
// deadline clears any previously set deadline.
type Conn interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
}

// Dial opens a connection to the interface named by link.
//
// Accepted forms:
//   - "tcp://host:port" or "socket://host:port" for network interfaces
//   - a bare device path (e.g. "/dev/ttyUSB0") or "file://..." for a
//     serial LI101
func Dial(link string) (Conn, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("invalid link %q: %w", link, err)
	}

	switch u.Scheme {
	case "tcp", "socket":
		conn, err := net.Dial("tcp", u.Host)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", u.Host, err)
		}
		tcp := conn.(*net.TCPConn)
		_ = tcp.SetKeepAlive(true)
		_ = tcp.SetKeepAlivePeriod(keepAlivePeriod)
		return tcp, nil

	case "file", "":
		port, err := serial.OpenPort(&serial.Config{
			Name:     u.Path,
			Baud:     serialBaud,
			Size:     8,
			Parity:   serial.ParityNone,
			StopBits: serial.Stop2,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open serial port %s: %w", u.Path, err)
		}
		return &serialConn{port: port}, nil

	default:
		return nil, fmt.Errorf("unsupported link scheme %q in %q", u.Scheme, link)
	}
}

// serialConn adapts a tarm serial port to Conn. The port is opened fully
// blocking; its timeout cannot be changed afterwards.
type serialConn struct {
	port *serial.Port
}

func (c *serialConn) Read(p []byte) (int, error)  { return c.port.Read(p) }
func (c *serialConn) Write(p []byte) (int, error) { return c.port.Write(p) }
func (c *serialConn) Close() error                { return c.port.Close() }

func (c *serialConn) SetReadDeadline(t time.Time) error {
	return ErrDeadlineUnsupported
}

// Drain discards any bytes already buffered on the link, so a fresh
// session does not trip over responses left behind by a previous owner.
// Links without deadline support are left untouched.
func Drain(conn Conn) error {
	if err := conn.SetReadDeadline(time.Now().Add(drainTimeout)); err != nil {
		if errors.Is(err, ErrDeadlineUnsupported) {
			return nil
		}
		return err
	}

	buf := make([]byte, 512)
	for {
		if _, err := conn.Read(buf); err != nil {
			break
		}
	}
	return conn.SetReadDeadline(time.Time{})
}
