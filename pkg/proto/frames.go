package proto

import (
	"fmt"
	"strconv"
)

// Debuggee → controller frame headers. BR and QT are asynchronous;
// OK and ER are synchronous replies to a command.
const (
	HeaderBreak = "BR"
	HeaderQuit  = "QT"
	HeaderOK    = "OK"
	HeaderError = "ER"
)

// WriteBreak sends an asynchronous BR frame: a break has occurred at
// path:line. Flushes immediately — BR is never batched with anything
// else.
func (c *Conn) WriteBreak(path string, line int) error {
	if err := c.WriteLine(HeaderBreak); err != nil {
		return err
	}
	if err := c.WriteLine(path); err != nil {
		return err
	}
	if err := c.WriteLine(strconv.Itoa(line)); err != nil {
		return err
	}
	return c.Flush()
}

// WriteQuit sends the terminal QT frame. Nothing follows it on this
// connection.
func (c *Conn) WriteQuit() error {
	if err := c.WriteLine(HeaderQuit); err != nil {
		return err
	}
	if err := c.WriteLine(""); err != nil {
		return err
	}
	return c.Flush()
}

// WriteError sends an ER frame with a free-text message and flushes.
func (c *Conn) WriteError(format string, args ...any) error {
	if err := c.WriteLine(HeaderError); err != nil {
		return err
	}
	if err := c.WriteLine(fmt.Sprintf(format, args...)); err != nil {
		return err
	}
	return c.Flush()
}

// BeginOK writes the OK header for a synchronous reply. Callers
// append the command-specific payload with further WriteLine/WriteRaw
// calls and must Flush when the response is complete — framing on
// this direction is payload-structured, not length-prefixed, so the
// write sequence itself defines the frame.
func (c *Conn) BeginOK() error {
	return c.WriteLine(HeaderOK)
}
