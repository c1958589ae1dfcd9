package debuggee

import (
	"github.com/glyphlang/rdb/pkg/breakpoints"
	"github.com/glyphlang/rdb/pkg/hostvm"
)

// onEvent is the hook installed on the host VM. Call/Return
// bookkeeping on `level` happens unconditionally; only Line events
// consult `mode` to decide whether to prompt.
func (s *Session) onEvent(ev hostvm.Event) {
	if s.detached {
		return
	}
	switch ev.Kind {
	case hostvm.EventCall:
		s.level++
	case hostvm.EventReturn, hostvm.EventTailReturn:
		if s.level > 0 {
			s.level--
		}
	case hostvm.EventLine:
		s.onLine(ev)
	}
}

func (s *Session) onLine(ev hostvm.Event) {
	switch s.mode {
	case ModeStep:
		s.prompt(ev)
	case ModeOver, ModeFinish:
		// FINISH shares OVER's level gate; the difference is only the
		// level the dispatcher seeded when the command was issued (0
		// for OVER, 1 for FINISH), so FINISH first prompts after the
		// current frame has returned.
		if s.level == 0 {
			s.prompt(ev)
		} else {
			s.consultBreakpoints(ev)
		}
	case ModeRun:
		s.consultBreakpoints(ev)
	}
}

func (s *Session) consultBreakpoints(ev hostvm.Event) {
	canon, err := breakpoints.Canonicalize(ev.ShortSrc)
	if err != nil {
		return
	}
	if s.breakpoints.Has(canon, ev.CurrentLine) {
		s.prompt(ev)
	}
}

// prompt sends an unsolicited BR frame and enters the command loop,
// answering one command at a time until a resume command (STEP,
// OVER, RUN, FINISH) is processed or the connection fails.
func (s *Session) prompt(ev hostvm.Event) {
	s.level = 0
	s.currentBreakSrc = ev.ShortSrc
	if err := s.conn.WriteBreak(ev.ShortSrc, ev.CurrentLine); err != nil {
		s.detach(err)
		return
	}
	for {
		line, err := s.conn.ReadCommandLine()
		if err != nil {
			s.detach(err)
			return
		}
		resume, err := s.dispatch(line)
		if err != nil {
			s.detach(err)
			return
		}
		if resume {
			s.refreshHookMask()
			return
		}
	}
}
