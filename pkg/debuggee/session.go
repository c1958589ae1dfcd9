// Package debuggee implements the debugger state machine, command
// dispatcher, and variable inspection engine that run inside the host
// process. It depends only on pkg/hostvm's abstract VM binding,
// pkg/vmvalue, pkg/breakpoints, pkg/fieldpath, pkg/proto, and
// pkg/logging — never on a concrete VM package — so the same session logic drives any host that
// implements hostvm.HostVM.
package debuggee

import (
	"github.com/glyphlang/rdb/pkg/breakpoints"
	"github.com/glyphlang/rdb/pkg/hostvm"
	"github.com/glyphlang/rdb/pkg/logging"
	"github.com/glyphlang/rdb/pkg/proto"
	"github.com/glyphlang/rdb/pkg/vmvalue"
)

// ResumeMode is the last resume command the controller selected: one
// of STEP, OVER, RUN, FINISH. It governs how the hook reacts to line
// events until the next prompt.
type ResumeMode int

const (
	ModeStep ResumeMode = iota
	ModeOver
	ModeRun
	ModeFinish
)

func (m ResumeMode) String() string {
	switch m {
	case ModeStep:
		return "step"
	case ModeOver:
		return "over"
	case ModeRun:
		return "run"
	case ModeFinish:
		return "finish"
	default:
		return "unknown"
	}
}

// Session is the single process-wide debugger record. It is
// deliberately a singleton per host process — the protocol and the
// VM hook installed against it assume exactly one debuggee on one
// connection at a time.
type Session struct {
	host hostvm.HostVM
	conn *proto.Conn
	log  *logging.Logger

	mode  ResumeMode
	level int

	breakpoints *breakpoints.Index
	cacheValue  vmvalue.Value

	// currentBreakSrc is the short_src of the frame currently paused
	// at, used to resolve a bare "." path argument on sb/db.
	currentBreakSrc string

	// memory backs the MEMORY command. The raw memory peek is a
	// host-specific debug aid; NoMemory is the default and reports it
	// as unavailable rather than fabricating a native address space.
	memory MemoryReader

	detached bool
}

// New creates a session bound to host and the accepted controller
// connection. The caller installs the returned session's hook (via
// Attach) once the VM is ready to run script code.
func New(host hostvm.HostVM, conn *proto.Conn, log *logging.Logger) *Session {
	return &Session{
		host:        host,
		conn:        conn,
		log:         log,
		mode:        ModeRun,
		breakpoints: breakpoints.NewIndex(),
		memory:      NoMemory{},
	}
}

// WithMemoryReader sets the backing for the MEMORY command. Host
// programs that can safely expose a native address range pass their
// own MemoryReader; the zero value refuses every request.
func (s *Session) WithMemoryReader(m MemoryReader) *Session {
	s.memory = m
	return s
}

// Attach installs the session's hook handler on host and arranges for
// the session's finalizer to fire QT and close the socket at VM
// teardown.
func (s *Session) Attach() {
	s.host.SetHook(s.onEvent)
	s.refreshHookMask()
	s.host.RegisterFinalizer(s.onTeardown)
}

func (s *Session) onTeardown() {
	if s.detached {
		return
	}
	_ = s.conn.WriteQuit()
	_ = s.conn.Close()
}

// Detached reports whether an I/O error has silently detached this
// session — the script keeps running, but the hook no longer talks
// to a controller.
func (s *Session) Detached() bool { return s.detached }

func (s *Session) detach(cause error) {
	if s.detached {
		return
	}
	s.detached = true
	s.host.SetHook(nil)
	if s.log != nil {
		s.log.ErrorWithFields("debuggee: detaching after I/O error", map[string]interface{}{"error": cause.Error()})
	}
}

// refreshHookMask implements the RUN-with-no-breakpoints
// optimization: when resuming in RUN with an empty breakpoint index,
// the line hook is disabled entirely; any other mode, or a non-empty
// index, keeps it on. Call and return hooks stay on unconditionally —
// `level` bookkeeping depends on them regardless of mode.
func (s *Session) refreshHookMask() {
	needLines := s.mode != ModeRun || !s.breakpoints.Empty()
	s.host.SetHookMask(needLines, true, true)
}
