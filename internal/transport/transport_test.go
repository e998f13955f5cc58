package transport

import (
	"net"
	"testing"
	"time"
)

func TestDialRejectsUnknownScheme(t *testing.T) {
	if _, err := Dial("gopher://example.org:70"); err == nil {
		t.Error("Dial() accepted an unsupported scheme")
	}
}

func TestDialTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
		close(accepted)
	}()

	conn, err := Dial("tcp://" + ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	select {
	case <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("listener never saw the connection")
	}
}

func TestDrainDiscardsPendingBytes(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	go func() {
		server.Write([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	}()

	// Give the stale bytes time to land in the pipe.
	time.Sleep(50 * time.Millisecond)

	if err := Drain(client); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}

	// The link must be usable afterwards: a fresh write arrives intact.
	go func() {
		server.Write([]byte{0xFF, 0xFE})
	}()
	buf := make([]byte, 2)
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := client.Read(buf); err != nil {
		t.Fatalf("read after Drain() failed: %v", err)
	}
	if buf[0] != 0xFF || buf[1] != 0xFE {
		t.Errorf("read % X after drain, want FF FE", buf)
	}
}

func TestSerialConnDeadlineUnsupported(t *testing.T) {
	c := &serialConn{}
	if err := c.SetReadDeadline(time.Now()); err != ErrDeadlineUnsupported {
		t.Errorf("SetReadDeadline() = %v, want ErrDeadlineUnsupported", err)
	}
}
