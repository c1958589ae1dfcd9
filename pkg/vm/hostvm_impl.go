package vm

import (
	"fmt"

	"github.com/glyphlang/rdb/pkg/hostvm"
	"github.com/glyphlang/rdb/pkg/vmvalue"
)

// SetHook implements hostvm.HostVM.
func (vm *VM) SetHook(fn func(hostvm.Event)) { vm.hook = fn }

// SetHookMask implements hostvm.HostVM. It backs the RUN-with-no-
// breakpoints optimization: the debuggee disables the line mask when
// there is nothing to stop for, so the interpreter
// skips the per-line comparison entirely instead of calling the hook
// just to have it do nothing.
func (vm *VM) SetHookMask(lines, calls, returns bool) {
	vm.hookLines, vm.hookCalls, vm.hookReturns = lines, calls, returns
}

func (vm *VM) frameIndex(level int) (int, error) {
	if level < 1 || level > len(vm.frames) {
		return 0, fmt.Errorf("invalid stack level: %d", level)
	}
	return len(vm.frames) - level, nil
}

// FrameCount implements hostvm.HostVM.
func (vm *VM) FrameCount() int { return len(vm.frames) }

// Frame implements hostvm.HostVM.
func (vm *VM) Frame(level int) (hostvm.FrameInfo, error) {
	idx, err := vm.frameIndex(level)
	if err != nil {
		return hostvm.FrameInfo{}, err
	}
	f := vm.frames[idx]
	line := f.lastLine
	if line < 0 {
		line = f.fn.LineDefined
	}
	return hostvm.FrameInfo{
		ShortSrc:        f.fn.ShortSrc,
		CurrentLine:     line,
		Name:            f.fn.Name,
		What:            f.fn.What,
		LineDefined:     f.fn.LineDefined,
		LastLineDefined: f.fn.LastLineDefined,
	}, nil
}

// Locals implements hostvm.HostVM. Slots are returned in declaration
// order; a name shared by two slots (shadowing) appears twice, and
// the caller is expected to prefer the later (higher-index) one.
func (vm *VM) Locals(level int) ([]hostvm.NamedValue, error) {
	idx, err := vm.frameIndex(level)
	if err != nil {
		return nil, err
	}
	f := vm.frames[idx]
	out := make([]hostvm.NamedValue, 0, len(f.locals))
	for i, name := range f.fn.LocalNames {
		v := f.locals[i]
		if v == nil {
			v = vmvalue.Nil{}
		}
		out = append(out, hostvm.NamedValue{Name: name, Value: v})
	}
	return out, nil
}

// Upvalues implements hostvm.HostVM.
func (vm *VM) Upvalues(level int) ([]hostvm.NamedValue, error) {
	idx, err := vm.frameIndex(level)
	if err != nil {
		return nil, err
	}
	f := vm.frames[idx]
	out := make([]hostvm.NamedValue, 0, len(f.upvalues))
	for i, name := range f.fn.UpvalueNames {
		if i >= len(f.upvalues) {
			break
		}
		out = append(out, hostvm.NamedValue{Name: name, Value: f.upvalues[i]})
	}
	return out, nil
}

// Globals implements hostvm.HostVM. All frames share one global
// environment in this VM, so level only matters for validating it's a
// live frame.
func (vm *VM) Globals(level int) ([]hostvm.NamedValue, error) {
	if _, err := vm.frameIndex(level); err != nil {
		return nil, err
	}
	return vm.globals.Pairs(), nil
}

// StringBytes implements hostvm.HostVM.
func (vm *VM) StringBytes(v vmvalue.Value) ([]byte, bool) {
	s, ok := v.(vmvalue.Str)
	if !ok {
		return nil, false
	}
	return []byte(s), true
}

// RegisterFinalizer implements hostvm.HostVM. Run calls every
// registered finalizer once, after the program halts.
func (vm *VM) RegisterFinalizer(fn func()) {
	vm.finalizers = append(vm.finalizers, fn)
}

var _ hostvm.HostVM = (*VM)(nil)
