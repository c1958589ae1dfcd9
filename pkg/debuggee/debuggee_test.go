package debuggee

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/glyphlang/rdb/pkg/breakpoints"
	"github.com/glyphlang/rdb/pkg/hostvm"
	"github.com/glyphlang/rdb/pkg/proto"
	"github.com/glyphlang/rdb/pkg/vmvalue"
	"github.com/stretchr/testify/require"
)

// fakeVM is a minimal hostvm.HostVM double driven directly by tests —
// it has no real interpreter loop; tests call fireLine/fireCall/
// fireReturn to simulate hook events the way a real VM would deliver
// them. src is the on-disk script path the fake reports as short_src.
type fakeVM struct {
	hook               func(hostvm.Event)
	hookLines          bool
	src                string
	frames             []hostvm.FrameInfo
	locals, ups, globs [][]hostvm.NamedValue
	finalizers         []func()
}

func (f *fakeVM) SetHook(fn func(hostvm.Event))          { f.hook = fn }
func (f *fakeVM) SetHookMask(lines, calls, returns bool) { f.hookLines = lines }
func (f *fakeVM) FrameCount() int                        { return len(f.frames) }
func (f *fakeVM) RegisterFinalizer(fn func())            { f.finalizers = append(f.finalizers, fn) }
func (f *fakeVM) StringBytes(v vmvalue.Value) ([]byte, bool) {
	s, ok := v.(vmvalue.Str)
	return []byte(s), ok
}

func (f *fakeVM) Frame(level int) (hostvm.FrameInfo, error) {
	idx := len(f.frames) - level
	if idx < 0 || level < 1 {
		return hostvm.FrameInfo{}, errNotFound
	}
	return f.frames[idx], nil
}

func (f *fakeVM) Locals(level int) ([]hostvm.NamedValue, error) {
	idx := len(f.locals) - level
	if idx < 0 || level < 1 {
		return nil, errNotFound
	}
	return f.locals[idx], nil
}

func (f *fakeVM) Upvalues(level int) ([]hostvm.NamedValue, error) {
	idx := len(f.ups) - level
	if idx < 0 || level < 1 {
		return nil, errNotFound
	}
	return f.ups[idx], nil
}

func (f *fakeVM) Globals(level int) ([]hostvm.NamedValue, error) {
	idx := len(f.globs) - level
	if idx < 0 || level < 1 {
		return nil, errNotFound
	}
	return f.globs[idx], nil
}

func (f *fakeVM) fireLine(line int) {
	f.hook(hostvm.Event{Kind: hostvm.EventLine, ShortSrc: f.src, CurrentLine: line})
}
func (f *fakeVM) fireCall()   { f.hook(hostvm.Event{Kind: hostvm.EventCall}) }
func (f *fakeVM) fireReturn() { f.hook(hostvm.Event{Kind: hostvm.EventReturn}) }

type notFoundErr struct{}

func (notFoundErr) Error() string { return "invalid stack level" }

var errNotFound = notFoundErr{}

func newHarness(t *testing.T) (*fakeVM, *Session, *proto.Conn) {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	t.Cleanup(func() { serverConn.Close(); clientConn.Close() })

	src := filepath.Join(t.TempDir(), "foo.lua")
	require.NoError(t, os.WriteFile(src, []byte("local x = 42\n"), 0o644))

	vm := &fakeVM{
		src:    src,
		frames: []hostvm.FrameInfo{{ShortSrc: src, CurrentLine: 3, Name: "main", What: "main", LineDefined: 1, LastLineDefined: 20}},
		locals: [][]hostvm.NamedValue{{
			{Name: "x", Value: vmvalue.Int(42)},
			{Name: "(temp)", Value: vmvalue.Int(0)},
		}},
	}
	sess := New(vm, proto.NewConn(serverConn), nil)
	sess.Attach()
	return vm, sess, proto.NewConn(clientConn)
}

func TestStepAlwaysPromptsAndResetsLevel(t *testing.T) {
	vm, sess, ctrl := newHarness(t)
	sess.mode = ModeStep
	sess.level = 3

	done := make(chan struct{})
	go func() {
		defer close(done)
		vm.fireLine(3)
	}()

	require.Equal(t, "BR", mustLine(t, ctrl))
	require.Equal(t, vm.src, mustLine(t, ctrl))
	require.Equal(t, "3", mustLine(t, ctrl))

	require.NoError(t, ctrl.WriteCommandLine("s"))
	<-done
	require.Equal(t, ModeStep, sess.mode)
	require.Equal(t, 0, sess.level)
}

func TestRunConsultsBreakpointIndex(t *testing.T) {
	vm, sess, ctrl := newHarness(t)
	sess.mode = ModeRun

	canon, err := breakpoints.Canonicalize(vm.src)
	require.NoError(t, err)
	sess.breakpoints.Set(canon, 10)
	sess.refreshHookMask()
	require.True(t, vm.hookLines)

	// Line not in the breakpoint set: no BR, hook returns immediately.
	returned := make(chan struct{})
	go func() {
		vm.fireLine(5)
		close(returned)
	}()
	<-returned

	// Line 10 is a breakpoint: BR fires.
	done := make(chan struct{})
	go func() {
		defer close(done)
		vm.fireLine(10)
	}()
	require.Equal(t, "BR", mustLine(t, ctrl))
	require.Equal(t, vm.src, mustLine(t, ctrl))
	require.Equal(t, "10", mustLine(t, ctrl))
	require.NoError(t, ctrl.WriteCommandLine("r"))
	<-done
}

func TestOverSkipsNestedCallAndLevelRoundTrips(t *testing.T) {
	vm, sess, ctrl := newHarness(t)
	sess.mode = ModeOver
	sess.level = 0

	// Enter OVER at line 3; level resets to 0 on prompt.
	done1 := make(chan struct{})
	go func() {
		defer close(done1)
		vm.fireLine(3)
	}()
	require.Equal(t, "BR", mustLine(t, ctrl))
	mustLine(t, ctrl)
	mustLine(t, ctrl)
	require.NoError(t, ctrl.WriteCommandLine("o"))
	<-done1
	require.Equal(t, 0, sess.level)

	// A nested call bumps level; the line events inside it must not
	// prompt because level != 0.
	vm.fireCall()
	require.Equal(t, 1, sess.level)

	noPrompt := make(chan struct{})
	go func() {
		vm.fireLine(4)
		close(noPrompt)
	}()
	<-noPrompt

	vm.fireReturn()
	require.Equal(t, 0, sess.level)

	// Back at the outer frame's next line: level==0, prompts again.
	done2 := make(chan struct{})
	go func() {
		defer close(done2)
		vm.fireLine(5)
	}()
	require.Equal(t, "BR", mustLine(t, ctrl))
	mustLine(t, ctrl)
	require.Equal(t, "5", mustLine(t, ctrl))
	require.NoError(t, ctrl.WriteCommandLine("r"))
	<-done2
}

func TestListLocalsSkipsParenPrefixedNames(t *testing.T) {
	vm, sess, ctrl := newHarness(t)
	sess.mode = ModeStep

	done := make(chan struct{})
	go func() {
		defer close(done)
		vm.fireLine(3)
	}()
	mustLine(t, ctrl)
	mustLine(t, ctrl)
	mustLine(t, ctrl)

	require.NoError(t, ctrl.WriteCommandLine("ll 1"))
	require.Equal(t, "OK", mustLine(t, ctrl))
	require.Equal(t, "x", mustLine(t, ctrl))
	require.Equal(t, "n42", mustLine(t, ctrl))

	require.NoError(t, ctrl.WriteCommandLine("s"))
	<-done
}

func TestWatchStringEncodesRawBytes(t *testing.T) {
	vm, sess, ctrl := newHarness(t)
	vm.locals[0] = append(vm.locals[0], hostvm.NamedValue{Name: "greeting", Value: vmvalue.Str("hello")})
	sess.mode = ModeStep

	done := make(chan struct{})
	go func() {
		defer close(done)
		vm.fireLine(3)
	}()
	mustLine(t, ctrl)
	mustLine(t, ctrl)
	mustLine(t, ctrl)

	require.NoError(t, ctrl.WriteCommandLine("w 1 l greeting"))
	require.Equal(t, "OK", mustLine(t, ctrl))
	line := mustLine(t, ctrl)
	require.Equal(t, byte('s'), line[0])
	dec, err := proto.Decode(line)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), dec.StrBytes)
	require.Equal(t, "0", mustLine(t, ctrl)) // hasMeta

	require.NoError(t, ctrl.WriteCommandLine("s"))
	<-done
}

func TestSetBreakpointDotResolvesCurrentFile(t *testing.T) {
	vm, sess, ctrl := newHarness(t)
	sess.mode = ModeStep

	done := make(chan struct{})
	go func() {
		defer close(done)
		vm.fireLine(3)
	}()
	mustLine(t, ctrl)
	mustLine(t, ctrl)
	mustLine(t, ctrl)

	require.NoError(t, ctrl.WriteCommandLine("sb . 10"))
	require.Equal(t, "OK", mustLine(t, ctrl))

	canon, err := breakpoints.Canonicalize(vm.src)
	require.NoError(t, err)
	require.True(t, sess.breakpoints.Has(canon, 10))

	require.NoError(t, ctrl.WriteCommandLine("s"))
	<-done
}

func TestSetBreakpointInaccessiblePathIsRefused(t *testing.T) {
	vm, sess, ctrl := newHarness(t)
	sess.mode = ModeStep

	done := make(chan struct{})
	go func() {
		defer close(done)
		vm.fireLine(3)
	}()
	mustLine(t, ctrl)
	mustLine(t, ctrl)
	mustLine(t, ctrl)

	missing := filepath.Join(filepath.Dir(vm.src), "does-not-exist.lua")
	require.NoError(t, ctrl.WriteCommandLine("sb "+missing+" 10"))
	require.Equal(t, "ER", mustLine(t, ctrl))
	require.Equal(t, "Invalid path!", mustLine(t, ctrl))
	require.True(t, sess.breakpoints.Empty())

	require.NoError(t, ctrl.WriteCommandLine("db "+missing+" 10"))
	require.Equal(t, "ER", mustLine(t, ctrl))
	require.Equal(t, "Invalid path!", mustLine(t, ctrl))

	require.NoError(t, ctrl.WriteCommandLine("s"))
	<-done
}

func TestUnknownCommandGetsErrorAndLoopContinues(t *testing.T) {
	vm, sess, ctrl := newHarness(t)
	sess.mode = ModeStep

	done := make(chan struct{})
	go func() {
		defer close(done)
		vm.fireLine(3)
	}()
	mustLine(t, ctrl)
	mustLine(t, ctrl)
	mustLine(t, ctrl)

	require.NoError(t, ctrl.WriteCommandLine("zz"))
	require.Equal(t, "ER", mustLine(t, ctrl))
	mustLine(t, ctrl)

	require.NoError(t, ctrl.WriteCommandLine("s"))
	<-done
}

func TestFinishRunsUntilCurrentFrameReturns(t *testing.T) {
	vm, sess, ctrl := newHarness(t)
	sess.mode = ModeStep

	done := make(chan struct{})
	go func() {
		defer close(done)
		vm.fireLine(3)
	}()
	mustLine(t, ctrl)
	mustLine(t, ctrl)
	mustLine(t, ctrl)

	require.NoError(t, ctrl.WriteCommandLine("f"))
	<-done
	require.Equal(t, ModeFinish, sess.mode)
	require.Equal(t, 1, sess.level)

	// Lines inside the current frame must not prompt.
	noPrompt := make(chan struct{})
	go func() {
		vm.fireLine(4)
		close(noPrompt)
	}()
	<-noPrompt

	// The frame returns; the caller's next line prompts.
	vm.fireReturn()
	require.Equal(t, 0, sess.level)

	done2 := make(chan struct{})
	go func() {
		defer close(done2)
		vm.fireLine(12)
	}()
	require.Equal(t, "BR", mustLine(t, ctrl))
	mustLine(t, ctrl)
	require.Equal(t, "12", mustLine(t, ctrl))
	require.NoError(t, ctrl.WriteCommandLine("r"))
	<-done2
}

func mustLine(t *testing.T, c *proto.Conn) string {
	t.Helper()
	line, err := c.ReadLine()
	require.NoError(t, err)
	return line
}
