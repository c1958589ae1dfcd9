package controller

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/glyphlang/rdb/pkg/proto"
	"github.com/glyphlang/rdb/pkg/vmvalue"
)

var (
	breakColor   = color.New(color.FgYellow, color.Bold)
	okColor      = color.New(color.FgGreen)
	errColor     = color.New(color.FgRed)
	nameColor    = color.New(color.FgCyan)
	promptColor  = color.New(color.FgMagenta, color.Bold)
	goodbyeColor = color.New(color.FgGreen, color.Bold)
)

// RenderBreak prints a BR notification — short, colorized, no
// surrounding noise.
func RenderBreak(w io.Writer, path string, line int) {
	breakColor.Fprintf(w, "break at %s:%d\n", path, line)
}

// RenderQuit prints the terminal QT notification.
func RenderQuit(w io.Writer) {
	goodbyeColor.Fprintln(w, "script finished, goodbye!")
}

// RenderReply prints a command's Reply.
func RenderReply(w io.Writer, r Reply) {
	if r.Err != "" {
		errColor.Fprintf(w, "%s\n", r.Err)
		return
	}
	switch r.Kind {
	case Step, Over, Run, Finish:
		okColor.Fprintln(w, "ok")
	case ListLocals, ListUpvalues, ListGlobals:
		renderNamed(w, r.Named)
	case PrintStack:
		renderStack(w, r.Stack)
	case Watch:
		renderWatch(w, r)
	case SetBreakpoint, DelBreakpoint:
		okColor.Fprintln(w, "ok")
	case ListBreakpoints:
		renderBreakpoints(w, r.Breakpoints)
	case Memory:
		renderMemory(w, r)
	case Help:
		renderHelp(w)
	}
}

func renderNamed(w io.Writer, named []NamedValue) {
	if len(named) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	for _, nv := range named {
		nameColor.Fprintf(w, "%s", nv.Name)
		fmt.Fprintf(w, " = %s\n", renderValue(nv.Value))
	}
}

func renderStack(w io.Writer, frames []StackFrame) {
	for i, f := range frames {
		fmt.Fprintf(w, "#%d  %s:%d  in %s (%s)\n", i+1, f.ShortSrc, f.CurrentLine, f.Name, f.What)
	}
}

func renderWatch(w io.Writer, r Reply) {
	fmt.Fprintf(w, "%s", renderValue(r.Root))
	if r.HasMeta {
		fmt.Fprint(w, " [has metatable]")
	}
	fmt.Fprintln(w)
	switch r.Root.Kind {
	case vmvalue.KindTable:
		for _, p := range r.TablePairs {
			fmt.Fprintf(w, "  %s => %s\n", renderValue(p.Key), renderValue(p.Value))
		}
	case vmvalue.KindUserData:
		fmt.Fprintf(w, "  size = %d bytes\n", r.UserSize)
	case vmvalue.KindFunction:
		fmt.Fprintf(w, "  %s function defined at %s:%d-%d\n", r.FuncWhat, r.FuncSrc, r.FuncLine1, r.FuncLine2)
	case vmvalue.KindThread:
		fmt.Fprintf(w, "  status = %d\n", r.ThreadStat)
	}
}

func renderBreakpoints(w io.Writer, bps []Breakpoint) {
	if len(bps) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	for _, bp := range bps {
		fmt.Fprintf(w, "%s:%d\n", bp.Path, bp.Line)
	}
}

func renderMemory(w io.Writer, r Reply) {
	fmt.Fprintf(w, "%d bytes:\n", r.MemLen)
	for i := 0; i < len(r.MemRaw); i += 16 {
		end := i + 16
		if end > len(r.MemRaw) {
			end = len(r.MemRaw)
		}
		fmt.Fprintf(w, "  %08x  % x\n", i, r.MemRaw[i:end])
	}
}

func renderHelp(w io.Writer) {
	fmt.Fprint(w, `commands:
  s               step into
  o               step over
  r               run until breakpoint
  f               finish (run until the current frame returns)
  ll [N]          list locals of frame N (default 1)
  lu [N]          list upvalues of frame N
  lg [N]          list globals visible to frame N
  ps              print stack
  w ...           watch a variable or field path
  sb <path> <ln>  set breakpoint
  db <path> <ln>  delete breakpoint
  lb              list breakpoints
  m <addr> <len>  read raw memory
  be <file>       export breakpoints to a YAML file
  bi <file>       import breakpoints from a YAML file
  h               this help
`)
}

func renderValue(v proto.Rendered) string {
	switch v.Kind {
	case vmvalue.KindNil:
		return "nil"
	case vmvalue.KindBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case vmvalue.KindNumber:
		return v.Number
	case vmvalue.KindString:
		return fmt.Sprintf("%q", string(v.StrBytes))
	case vmvalue.KindLightUserData:
		return fmt.Sprintf("lightuserdata@0x%08x", uint32(v.Addr))
	case vmvalue.KindTable:
		return fmt.Sprintf("table@0x%08x", uint32(v.Addr))
	case vmvalue.KindFunction:
		return fmt.Sprintf("function@0x%08x", uint32(v.Addr))
	case vmvalue.KindUserData:
		return fmt.Sprintf("userdata@0x%08x", uint32(v.Addr))
	case vmvalue.KindThread:
		return fmt.Sprintf("thread@0x%08x", uint32(v.Addr))
	default:
		return "<?>"
	}
}
