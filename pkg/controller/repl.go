package controller

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/glyphlang/rdb/pkg/proto"
	"github.com/glyphlang/rdb/pkg/tracing"
)

// REPL drives the controller's prompt loop: alternate between
// blocking on the next BR/QT and a blocking read from the terminal
// followed by one command round-trip.
type REPL struct {
	client *Client
	in     *bufio.Reader
	out    io.Writer
	errW   io.Writer
	obs    Observability
}

// NewREPL wraps conn and the user's terminal streams.
func NewREPL(conn *proto.Conn, in io.Reader, out, errW io.Writer) *REPL {
	return &REPL{
		client: NewClient(conn),
		in:     bufio.NewReader(in),
		out:    out,
		errW:   errW,
	}
}

// WithObservability attaches metrics/session-recording/dashboard
// reporting to the REPL. Returns the REPL for chaining.
func (r *REPL) WithObservability(obs Observability) *REPL {
	r.obs = obs
	return r
}

// Run blocks until the debuggee sends QT, a transport/protocol error
// occurs, or the terminal input ends, returning the process exit
// code: 0 on QT or end of terminal input, 1 on error.
func (r *REPL) Run() int {
	for {
		ev, err := r.client.WaitForEvent()
		if err != nil {
			errColor.Fprintln(r.errW, "Socket or protocol error!")
			return 1
		}
		if ev.Quit {
			r.obs.recordDetach()
			RenderQuit(r.out)
			return 0
		}
		r.obs.recordBreak(context.Background(), ev.Path, ev.Line)
		RenderBreak(r.out, ev.Path, ev.Line)
		if code, done := r.promptLoop(); done {
			return code
		}
	}
}

// promptLoop answers commands until one resumes execution. done is
// true when the REPL must exit: the connection failed (code 1), the
// terminal input ended (code 0), or reading it failed (code 1).
func (r *REPL) promptLoop() (code int, done bool) {
	for {
		promptColor.Fprint(r.out, "?> ")
		line, err := r.in.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return 0, true
			}
			return 1, true
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		tokens, terr := Tokenize(line)
		if terr != nil {
			errColor.Fprintln(r.out, "Invalid command! Type 'h' for help.")
			continue
		}
		cmd, perr := Parse(tokens)
		if perr != nil {
			errColor.Fprintln(r.out, perr.Error())
			continue
		}
		if cmd.Kind == Help {
			renderHelp(r.out)
			continue
		}
		if cmd.Kind == BpExport || cmd.Kind == BpImport {
			var msg string
			var berr error
			if cmd.Kind == BpExport {
				msg, berr = exportBreakpoints(r.client, cmd.File)
			} else {
				msg, berr = importBreakpoints(r.client, cmd.File)
			}
			if berr != nil {
				errColor.Fprintln(r.errW, "Socket or protocol error!")
				return 1, true
			}
			fmt.Fprintln(r.out, msg)
			continue
		}

		resumeMode := "none"
		if cmd.Kind.Resuming() {
			resumeMode = cmd.Kind.String()
		}
		_, span := tracing.StartCommandSpan(context.Background(), cmd.Kind.String(), resumeMode)
		reply, derr := r.client.Do(cmd)
		tracing.EndWithError(span, derr)
		if derr != nil {
			errColor.Fprintln(r.errW, "Socket or protocol error!")
			return 1, true
		}
		r.obs.recordCommand(context.Background(), cmd, reply)
		RenderReply(r.out, reply)
		if cmd.Kind.Resuming() {
			return 0, false
		}
	}
}
