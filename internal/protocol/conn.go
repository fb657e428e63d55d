package protocol

import (
	"bufio"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"
)

// DefaultProbeTimeout bounds how long a half-close probe waits for data
const DefaultProbeTimeout = 5 * time.Millisecond

// Conn frames a net.Conn as newline-terminated text lines
type Conn struct {
	conn         net.Conn
	reader       *bufio.Reader
	probeTimeout time.Duration

	writeMu sync.Mutex
}

// NewConn wraps conn for line-oriented reads and writes
func NewConn(conn net.Conn) *Conn {
	return &Conn{
		conn:         conn,
		reader:       bufio.NewReader(conn),
		probeTimeout: DefaultProbeTimeout,
	}
}

// RemoteAddr returns the peer address
func (c *Conn) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// ReadLine blocks for the next line and returns it without its terminator.
// A final unterminated line is returned before io.EOF.
func (c *Conn) ReadLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// WriteLine sends s followed by a newline
func (c *Conn) WriteLine(s string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := io.WriteString(c.conn, s+"\n")
	return err
}

// HalfClosed reports whether the peer has closed its side of the stream.
// Buffered data or a probe that times out means the peer is still there.
func (c *Conn) HalfClosed() bool {
	if c.reader.Buffered() > 0 {
		return false
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(c.probeTimeout)); err != nil {
		return true
	}
	_, err := c.reader.Peek(1)
	_ = c.conn.SetReadDeadline(time.Time{})

	if err == nil || IsTimeout(err) {
		return false
	}
	return true
}

// SetReadDeadline bounds the next reads on the underlying connection
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// Close closes the underlying connection
func (c *Conn) Close() error {
	return c.conn.Close()
}

// IsTimeout reports whether err came from an expired read or write deadline
func IsTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
