package debuggee

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/glyphlang/rdb/pkg/breakpoints"
	"github.com/glyphlang/rdb/pkg/proto"
)

// dispatch parses and executes one command line already stripped of
// its NUL terminator. The returned bool is true when the command
// resumes script execution (STEP/OVER/RUN/FINISH); err is non-nil
// only for a transport failure writing the response — semantic
// failures are reported as an ER frame and returned as (false, nil)
// so the prompt loop keeps reading.
func (s *Session) dispatch(line string) (resume bool, err error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return false, s.conn.WriteError("Invalid command! Type 'h' for help.")
	}

	switch tokens[0] {
	case "s":
		s.mode = ModeStep
		return true, nil
	case "o":
		s.mode = ModeOver
		return true, nil
	case "r":
		s.mode = ModeRun
		return true, nil
	case "f":
		// Run until the current frame returns: seeding level to 1 makes
		// every line event in this frame (and below) see level > 0, so
		// the first prompt-eligible line is in the caller, right after
		// the return event decrements level back to 0.
		s.mode = ModeFinish
		s.level = 1
		return true, nil
	case "ll":
		return false, s.cmdListLocals(tokens)
	case "lu":
		return false, s.cmdListUpvalues(tokens)
	case "lg":
		return false, s.cmdListGlobals(tokens)
	case "ps":
		return false, s.cmdPrintStack()
	case "w":
		return false, s.cmdWatch(tokens[1:])
	case "sb":
		return false, s.cmdSetBreakpoint(tokens)
	case "db":
		return false, s.cmdDelBreakpoint(tokens)
	case "lb":
		return false, s.cmdListBreakpoints()
	case "m":
		return false, s.cmdMemory(tokens)
	case "e":
		// Reserved for expression evaluation; accepted so a controller
		// probing for it gets a definite answer rather than a generic
		// unknown-command error.
		return false, s.conn.WriteError("Not implemented!")
	default:
		return false, s.conn.WriteError("Unknown command!")
	}
}

func parseLevel(tokens []string) (int, error) {
	if len(tokens) < 2 {
		return 1, nil
	}
	n, err := strconv.Atoi(tokens[1])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid frame level %q", tokens[1])
	}
	return n, nil
}

func (s *Session) cmdPrintStack() error {
	if err := s.conn.BeginOK(); err != nil {
		return err
	}
	fw := proto.NewFrameWriter(s.conn)
	n := s.host.FrameCount()
	for level := 1; level <= n; level++ {
		fi, err := s.host.Frame(level)
		if err != nil {
			return s.conn.WriteError("%s", err.Error())
		}
		name := fi.Name
		if name == "" {
			name = "[N/A]"
		}
		what := fi.What
		if what == "" {
			what = "[N/A]"
		}
		if err := fw.S(fi.ShortSrc); err != nil {
			return err
		}
		if err := fw.D(fi.CurrentLine); err != nil {
			return err
		}
		if err := fw.S(name); err != nil {
			return err
		}
		if err := fw.S(what); err != nil {
			return err
		}
	}
	return fw.Flush()
}

func (s *Session) cmdSetBreakpoint(tokens []string) error {
	if len(tokens) != 3 {
		return s.conn.WriteError("Invalid command! Type 'h' for help.")
	}
	canon, err := s.resolveBreakpointPath(tokens[1])
	if err != nil {
		return s.conn.WriteError("Invalid path!")
	}
	line, err := strconv.Atoi(tokens[2])
	if err != nil || line < 1 {
		return s.conn.WriteError("Invalid command! Type 'h' for help.")
	}
	s.breakpoints.Set(canon, line)
	s.refreshHookMask()
	return s.okOnly()
}

func (s *Session) cmdDelBreakpoint(tokens []string) error {
	if len(tokens) != 3 {
		return s.conn.WriteError("Invalid command! Type 'h' for help.")
	}
	canon, err := s.resolveBreakpointPath(tokens[1])
	if err != nil {
		return s.conn.WriteError("Invalid path!")
	}
	line, err := strconv.Atoi(tokens[2])
	if err != nil || line < 1 {
		return s.conn.WriteError("Invalid command! Type 'h' for help.")
	}
	s.breakpoints.Delete(canon, line)
	s.refreshHookMask()
	return s.okOnly()
}

func (s *Session) resolveBreakpointPath(raw string) (string, error) {
	if raw == "." {
		return breakpoints.Canonicalize(s.currentBreakSrc)
	}
	return breakpoints.Canonicalize(raw)
}

func (s *Session) cmdListBreakpoints() error {
	if err := s.conn.BeginOK(); err != nil {
		return err
	}
	fw := proto.NewFrameWriter(s.conn)
	for _, e := range s.breakpoints.List() {
		if err := fw.S(e.Path); err != nil {
			return err
		}
		if err := fw.D(e.Line); err != nil {
			return err
		}
	}
	return fw.Flush()
}

func (s *Session) cmdMemory(tokens []string) error {
	if len(tokens) != 3 {
		return s.conn.WriteError("Invalid command! Type 'h' for help.")
	}
	addr, err := strconv.ParseUint(strings.TrimPrefix(tokens[1], "0x"), 16, 64)
	if err != nil {
		return s.conn.WriteError("Invalid command! Type 'h' for help.")
	}
	n, err := strconv.Atoi(tokens[2])
	if err != nil || n < 0 {
		return s.conn.WriteError("Invalid command! Type 'h' for help.")
	}
	buf, rerr := s.memory.Read(uintptr(addr), n)
	if rerr != nil {
		return s.conn.WriteError("%s", rerr.Error())
	}
	if err := s.conn.BeginOK(); err != nil {
		return err
	}
	fw := proto.NewFrameWriter(s.conn)
	if err := fw.Hex8(uint32(len(buf))); err != nil {
		return err
	}
	if err := fw.Q(buf); err != nil {
		return err
	}
	return fw.Flush()
}

func (s *Session) okOnly() error {
	if err := s.conn.BeginOK(); err != nil {
		return err
	}
	return s.conn.Flush()
}
