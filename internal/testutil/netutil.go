// Package testutil provides small helpers shared by the jeux test suites:
// in-memory connections and protocol round-trip helpers.
package testutil

import (
	"net"
	"testing"
	"time"

	"github.com/udisondev/jeux/internal/protocol"
)

// PipeConn creates a pair of connected net.Conn via net.Pipe for testing.
// Both ends are closed automatically when the test completes.
func PipeConn(t testing.TB) (client, server net.Conn) {
	t.Helper()

	server, client = net.Pipe()

	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})

	return client, server
}

// ListenTCP creates a TCP listener on a random port for tests. Returns the
// listener and its address in "host:port" form. Closed automatically when
// the test completes.
func ListenTCP(t testing.TB) (net.Listener, string) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create TCP listener: %v", err)
	}

	t.Cleanup(func() {
		_ = listener.Close()
	})

	return listener, listener.Addr().String()
}

// ConnWithDeadline wraps a net.Conn, setting a fresh read/write deadline
// before every call.
type ConnWithDeadline struct {
	net.Conn
	deadline time.Duration
}

// NewConnWithDeadline wraps conn with an automatic per-call deadline.
func NewConnWithDeadline(conn net.Conn, deadline time.Duration) *ConnWithDeadline {
	return &ConnWithDeadline{Conn: conn, deadline: deadline}
}

func (c *ConnWithDeadline) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.deadline)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}

func (c *ConnWithDeadline) Write(b []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.deadline)); err != nil {
		return 0, err
	}
	return c.Conn.Write(b)
}

// SendPacket writes a single packet to conn, failing the test on error.
func SendPacket(t testing.TB, conn net.Conn, h protocol.Header, payload []byte) {
	t.Helper()
	if err := protocol.Send(conn, nil, h, payload); err != nil {
		t.Fatalf("sending packet: %v", err)
	}
}

// RecvPacket reads a single packet from conn, failing the test on error.
func RecvPacket(t testing.TB, conn net.Conn) (protocol.Header, []byte) {
	t.Helper()
	h, payload, err := protocol.Recv(conn)
	if err != nil {
		t.Fatalf("receiving packet: %v", err)
	}
	return h, payload
}
