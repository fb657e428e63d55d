package testutil

import (
	"bufio"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// LineTimeout bounds every read made by a LineClient
const LineTimeout = 2 * time.Second

// LineClient drives the line protocol from the client side of a connection
type LineClient struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

// NewLineClient wraps conn; the connection is closed when the test ends
func NewLineClient(t *testing.T, conn net.Conn) *LineClient {
	t.Helper()
	t.Cleanup(func() { _ = conn.Close() })
	return &LineClient{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

// DialLineClient connects to a TCP address
func DialLineClient(t *testing.T, addr string) *LineClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, LineTimeout)
	require.NoError(t, err)
	return NewLineClient(t, conn)
}

// Send writes one line
func (c *LineClient) Send(line string) {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetWriteDeadline(time.Now().Add(LineTimeout)))
	_, err := io.WriteString(c.conn, line+"\n")
	require.NoError(c.t, err)
}

// ReadLine reads one response line
func (c *LineClient) ReadLine() string {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(LineTimeout)))
	line, err := c.reader.ReadString('\n')
	require.NoError(c.t, err)
	return strings.TrimRight(line, "\r\n")
}

// Expect reads len(lines) responses and checks them in order
func (c *LineClient) Expect(lines ...string) {
	c.t.Helper()
	for _, want := range lines {
		require.Equal(c.t, want, c.ReadLine())
	}
}

// Roundtrip sends a line and returns the single response
func (c *LineClient) Roundtrip(line string) string {
	c.t.Helper()
	c.Send(line)
	return c.ReadLine()
}

// ExpectClosed checks that the server has closed the connection
func (c *LineClient) ExpectClosed() {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(LineTimeout)))
	_, err := c.reader.ReadString('\n')
	require.ErrorIs(c.t, err, io.EOF)
}

// Close closes the client side
func (c *LineClient) Close() {
	_ = c.conn.Close()
}
