package vm

import "github.com/glyphlang/rdb/pkg/vmvalue"

// frame is one activation record: a function, its program counter,
// and its local/upvalue slots. The call stack is a plain slice of
// *frame, innermost last.
type frame struct {
	fn       *Function
	pc       int
	locals   []vmvalue.Value
	upvalues []vmvalue.Value
	lastLine int

	// tailCaller records whether this frame was entered by a tail
	// call, so its eventual return fires a TailReturn hook event
	// instead of a plain Return.
	tailCaller bool
}

func newFrame(fn *Function, upvalues []vmvalue.Value) *frame {
	return &frame{
		fn:       fn,
		locals:   make([]vmvalue.Value, fn.NumLocals()),
		upvalues: upvalues,
		lastLine: -1,
	}
}
