package controller

import (
	"fmt"

	"github.com/glyphlang/rdb/pkg/proto"
)

// Client drives one debuggee connection: waiting for asynchronous
// BR/QT frames and round-tripping synchronous commands during a
// break. The debuggee answers exactly one OK/ER per query command
// before any next BR, so the two never race.
type Client struct {
	conn *proto.Conn
}

func NewClient(conn *proto.Conn) *Client { return &Client{conn: conn} }

// Event is an asynchronous frame read while not inside a command
// loop: a break location, or the terminal quit signal.
type Event struct {
	Quit bool
	Path string
	Line int
}

// WaitForEvent blocks until the debuggee sends BR or QT.
func (c *Client) WaitForEvent() (Event, error) {
	header, err := c.conn.ReadLine()
	if err != nil {
		return Event{}, err
	}
	switch header {
	case proto.HeaderQuit:
		if _, err := c.conn.ReadLine(); err != nil { // the blank line after QT
			return Event{}, err
		}
		return Event{Quit: true}, nil
	case proto.HeaderBreak:
		path, err := c.conn.ReadLine()
		if err != nil {
			return Event{}, err
		}
		lineText, err := c.conn.ReadLine()
		if err != nil {
			return Event{}, err
		}
		line, err := parseInt(lineText)
		if err != nil {
			return Event{}, fmt.Errorf("malformed BR frame: %w", err)
		}
		return Event{Path: path, Line: line}, nil
	default:
		return Event{}, fmt.Errorf("unexpected frame header %q", header)
	}
}

// Do sends cmd and reads back its reply, parsed per the response
// schema its Kind implies. A resuming command (s/o/r/f)
// gets no OK/ER of its own — the debuggee leaves its command loop
// immediately and the next thing on the wire is the next BR or QT, so
// Do returns a bare Reply without reading.
func (c *Client) Do(cmd Command) (Reply, error) {
	if err := c.conn.WriteCommandLine(cmd.Wire); err != nil {
		return Reply{}, err
	}
	if cmd.Kind.Resuming() {
		return Reply{Kind: cmd.Kind}, nil
	}
	header, err := c.conn.ReadLine()
	if err != nil {
		return Reply{}, err
	}
	switch header {
	case proto.HeaderError:
		msg, err := c.conn.ReadLine()
		if err != nil {
			return Reply{}, err
		}
		return Reply{Kind: cmd.Kind, Err: msg}, nil
	case proto.HeaderOK:
		return parseOKReply(c.conn, cmd.Kind)
	default:
		return Reply{}, fmt.Errorf("unexpected reply header %q", header)
	}
}

func parseInt(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, fmt.Errorf("empty integer")
	}
	neg := false
	i := 0
	if s[0] == '-' {
		neg = true
		i = 1
	}
	if i == len(s) {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("invalid integer %q", s)
		}
		n = n*10 + int(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}
