// Package proto implements the wire codec shared by the debuggee and
// the controller: a framed, line-oriented reader/writer over one TCP
// connection, and the tagged variable encoding. Reads that need an
// exact byte count go through io.ReadFull; everything else is
// newline- or NUL-delimited over a buffered net.Conn.
package proto

import (
	"bufio"
	"errors"
	"io"
	"net"
	"time"
)

// ErrDetached is returned by Conn's methods once the connection has
// been marked invalid after an I/O error. Callers check for it
// instead of re-reading a dead socket.
var ErrDetached = errors.New("proto: connection detached")

// Conn wraps a net.Conn with the buffered, blocking read/write
// primitives both ends of the protocol build their command and
// response handling on. All I/O is synchronous and blocking — there
// is exactly one connection and no concurrency to hide latency
// behind.
type Conn struct {
	nc       net.Conn
	r        *bufio.Reader
	w        *bufio.Writer
	detached bool
}

// NewConn wraps an established connection.
func NewConn(nc net.Conn) *Conn {
	return &Conn{
		nc: nc,
		r:  bufio.NewReader(nc),
		w:  bufio.NewWriter(nc),
	}
}

// Detach marks the connection invalid and closes it — the
// error-triggered teardown, as opposed to Close's orderly one.
func (c *Conn) Detach() error {
	c.detached = true
	return c.nc.Close()
}

// Detached reports whether a prior I/O error has disabled this
// connection.
func (c *Conn) Detached() bool { return c.detached }

func (c *Conn) fail(err error) error {
	if err != nil {
		c.detached = true
	}
	return err
}

// ReadLine reads up to and including the next '\n', returning the
// line with the trailing newline stripped. This is the primitive
// every line of a BR/QT/OK/ER frame is read with.
func (c *Conn) ReadLine() (string, error) {
	if c.detached {
		return "", ErrDetached
	}
	line, err := c.r.ReadString('\n')
	if err != nil {
		return "", c.fail(err)
	}
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	return line, nil
}

// ReadLineIdle reads one line like ReadLine, but returns (\"\", true,
// nil) instead of blocking once idle has elapsed with nothing more
// arriving. This is the controller's way of framing a variable-length
// reply (LIST_LOCALS/UPVALUES/GLOBALS, PRINT_STACK, a WATCH table's
// pairs, LIST_BREAKPOINTS) whose element count never appears on the
// wire: the debuggee flushes the whole response in one write, so in
// practice it all lands in the read buffer together and only the
// read past the real end of the message ever blocks. It is the
// deadline-based analogue of a select()-driven "anything else
// pending?" check.
func (c *Conn) ReadLineIdle(idle time.Duration) (line string, timedOut bool, err error) {
	if c.detached {
		return "", false, ErrDetached
	}
	if err := c.nc.SetReadDeadline(time.Now().Add(idle)); err != nil {
		return "", false, c.fail(err)
	}
	defer c.nc.SetReadDeadline(time.Time{})
	line, err = c.r.ReadString('\n')
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return "", true, nil
		}
		return "", false, c.fail(err)
	}
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	return line, false, nil
}

// ReadExact reads exactly n raw bytes — used for MEMORY's verbatim
// byte payload, which is not line-delimited.
func (c *Conn) ReadExact(n int) ([]byte, error) {
	if c.detached {
		return nil, ErrDetached
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		return nil, c.fail(err)
	}
	return buf, nil
}

// ReadCommandLine reads a controller→debuggee command: a single
// NUL-terminated line. The NUL is the frame terminator on this
// direction, not a newline.
func (c *Conn) ReadCommandLine() (string, error) {
	if c.detached {
		return "", ErrDetached
	}
	line, err := c.r.ReadString(0)
	if err != nil {
		return "", c.fail(err)
	}
	return line[:len(line)-1], nil
}

// WriteCommandLine sends a controller→debuggee command line, NUL
// terminated, and flushes immediately — a command is always a
// complete frame in itself.
func (c *Conn) WriteCommandLine(s string) error {
	if c.detached {
		return ErrDetached
	}
	if _, err := c.w.WriteString(s); err != nil {
		return c.fail(err)
	}
	if err := c.w.WriteByte(0); err != nil {
		return c.fail(err)
	}
	return c.fail(c.w.Flush())
}

// WriteLine buffers s followed by '\n'. Callers building a multi-line
// OK response call this repeatedly and Flush once at the end, so the
// whole response — header and payload together — reaches the peer as
// one write.
func (c *Conn) WriteLine(s string) error {
	if c.detached {
		return ErrDetached
	}
	if _, err := c.w.WriteString(s); err != nil {
		return c.fail(err)
	}
	return c.fail(c.w.WriteByte('\n'))
}

// WriteRaw buffers raw, non-newline-delimited bytes — MEMORY's
// verbatim payload.
func (c *Conn) WriteRaw(b []byte) error {
	if c.detached {
		return ErrDetached
	}
	_, err := c.w.Write(b)
	return c.fail(err)
}

// Flush sends everything buffered since the last Flush.
func (c *Conn) Flush() error {
	if c.detached {
		return ErrDetached
	}
	return c.fail(c.w.Flush())
}

// Close closes the underlying connection without marking it
// detached — used for the orderly QT-then-close shutdown, as opposed
// to Detach's error-triggered teardown.
func (c *Conn) Close() error {
	return c.nc.Close()
}
