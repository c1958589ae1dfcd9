package controller

import (
	"fmt"
	"time"

	"github.com/glyphlang/rdb/pkg/proto"
)

// idleFrame is how long the controller waits for one more line of a
// variable-length reply before concluding the debuggee has nothing
// more to send (see proto.Conn.ReadLineIdle).
const idleFrame = 75 * time.Millisecond

// NamedValue is one name/value pair as the controller renders it —
// it never reconstructs a vmvalue.Value, only the decoded wire
// representation.
type NamedValue struct {
	Name  string
	Value proto.Rendered
}

// StackFrame is one PRINT_STACK entry.
type StackFrame struct {
	ShortSrc    string
	CurrentLine int
	Name        string
	What        string
}

// TablePair is one WATCH table entry.
type TablePair struct {
	Key, Value proto.Rendered
}

// Breakpoint is one LIST_BREAKPOINTS entry.
type Breakpoint struct {
	Path string
	Line int
}

// Reply is every OK/ER response, normalized for the renderer. Only
// the fields relevant to Kind are populated.
type Reply struct {
	Kind Kind
	Err  string

	Named       []NamedValue
	Stack       []StackFrame
	Breakpoints []Breakpoint

	Root       proto.Rendered
	HasMeta    bool
	TablePairs []TablePair
	UserSize   int
	FuncWhat   string
	FuncSrc    string
	FuncLine1  int
	FuncLine2  int
	ThreadStat int

	MemLen int
	MemRaw []byte
}

func parseOKReply(conn *proto.Conn, kind Kind) (Reply, error) {
	r := Reply{Kind: kind}
	switch kind {
	case ListLocals, ListUpvalues, ListGlobals:
		pairs, err := readNamedPairs(conn)
		if err != nil {
			return Reply{}, err
		}
		r.Named = pairs
	case PrintStack:
		frames, err := readStackFrames(conn)
		if err != nil {
			return Reply{}, err
		}
		r.Stack = frames
	case Watch:
		if err := readWatch(conn, &r); err != nil {
			return Reply{}, err
		}
	case SetBreakpoint, DelBreakpoint:
		// OK only.
	case ListBreakpoints:
		bps, err := readBreakpoints(conn)
		if err != nil {
			return Reply{}, err
		}
		r.Breakpoints = bps
	case Memory:
		if err := readMemory(conn, &r); err != nil {
			return Reply{}, err
		}
	}
	return r, nil
}

func readNamedPairs(conn *proto.Conn) ([]NamedValue, error) {
	var out []NamedValue
	for {
		name, idle, err := conn.ReadLineIdle(idleFrame)
		if err != nil {
			return nil, err
		}
		if idle {
			return out, nil
		}
		valLine, err := conn.ReadLine()
		if err != nil {
			return nil, err
		}
		val, err := proto.Decode(valLine)
		if err != nil {
			return nil, err
		}
		out = append(out, NamedValue{Name: name, Value: val})
	}
}

func readStackFrames(conn *proto.Conn) ([]StackFrame, error) {
	var out []StackFrame
	for {
		src, idle, err := conn.ReadLineIdle(idleFrame)
		if err != nil {
			return nil, err
		}
		if idle {
			return out, nil
		}
		lineText, err := conn.ReadLine()
		if err != nil {
			return nil, err
		}
		line, err := parseInt(lineText)
		if err != nil {
			return nil, err
		}
		name, err := conn.ReadLine()
		if err != nil {
			return nil, err
		}
		what, err := conn.ReadLine()
		if err != nil {
			return nil, err
		}
		out = append(out, StackFrame{ShortSrc: src, CurrentLine: line, Name: name, What: what})
	}
}

func readWatch(conn *proto.Conn, r *Reply) error {
	rootLine, err := conn.ReadLine()
	if err != nil {
		return err
	}
	root, err := proto.Decode(rootLine)
	if err != nil {
		return err
	}
	r.Root = root

	metaLine, err := conn.ReadLine()
	if err != nil {
		return err
	}
	r.HasMeta = metaLine == "1"

	switch root.Kind.Letter() {
	case 't':
		pairs, err := readTablePairs(conn)
		if err != nil {
			return err
		}
		r.TablePairs = pairs
	case 'u':
		sizeLine, err := conn.ReadLine()
		if err != nil {
			return err
		}
		r.UserSize, err = parseInt(sizeLine)
		if err != nil {
			return err
		}
	case 'f':
		what, err := conn.ReadLine()
		if err != nil {
			return err
		}
		src, err := conn.ReadLine()
		if err != nil {
			return err
		}
		l1, err := conn.ReadLine()
		if err != nil {
			return err
		}
		l2, err := conn.ReadLine()
		if err != nil {
			return err
		}
		r.FuncWhat, r.FuncSrc = what, src
		if r.FuncLine1, err = parseInt(l1); err != nil {
			return err
		}
		if r.FuncLine2, err = parseInt(l2); err != nil {
			return err
		}
	case 'd':
		statusLine, err := conn.ReadLine()
		if err != nil {
			return err
		}
		r.ThreadStat, err = parseInt(statusLine)
		if err != nil {
			return err
		}
	}
	return nil
}

func readTablePairs(conn *proto.Conn) ([]TablePair, error) {
	var out []TablePair
	for {
		keyLine, idle, err := conn.ReadLineIdle(idleFrame)
		if err != nil {
			return nil, err
		}
		if idle {
			return out, nil
		}
		key, err := proto.Decode(keyLine)
		if err != nil {
			return nil, err
		}
		valLine, err := conn.ReadLine()
		if err != nil {
			return nil, err
		}
		val, err := proto.Decode(valLine)
		if err != nil {
			return nil, err
		}
		out = append(out, TablePair{Key: key, Value: val})
	}
}

func readBreakpoints(conn *proto.Conn) ([]Breakpoint, error) {
	var out []Breakpoint
	for {
		path, idle, err := conn.ReadLineIdle(idleFrame)
		if err != nil {
			return nil, err
		}
		if idle {
			return out, nil
		}
		lineText, err := conn.ReadLine()
		if err != nil {
			return nil, err
		}
		line, err := parseInt(lineText)
		if err != nil {
			return nil, err
		}
		out = append(out, Breakpoint{Path: path, Line: line})
	}
}

func readMemory(conn *proto.Conn, r *Reply) error {
	lenLine, err := conn.ReadLine()
	if err != nil {
		return err
	}
	n, err := parseHexLen(lenLine)
	if err != nil {
		return err
	}
	buf, err := conn.ReadExact(n)
	if err != nil {
		return err
	}
	r.MemLen = n
	r.MemRaw = buf
	return nil
}

func parseHexLen(s string) (int, error) {
	addr, err := proto.Decode("U" + s)
	if err != nil {
		return 0, fmt.Errorf("malformed MEMORY length %q: %w", s, err)
	}
	return int(addr.Addr), nil
}
