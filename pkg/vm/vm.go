// Package vm is a small stack-based bytecode interpreter for an
// embedded scripting language: a byte-enum Opcode, a flat
// switch-dispatch step loop, and the tagged value union of
// pkg/vmvalue. It threads real activation records through
// Call/Return, because a source-level debugger needs frames, locals,
// and upvalues to inspect.
//
// VM implements hostvm.HostVM, so pkg/debuggee can drive it without
// depending on this package directly.
package vm

import (
	"fmt"

	"github.com/glyphlang/rdb/pkg/hostvm"
	"github.com/glyphlang/rdb/pkg/vmvalue"
)

// Program is a compiled unit: a table of functions and which one is
// the entry point. Nothing in this repository compiles source text
// into a Program — a debugger attaches to programs it did not build.
// Tests and demo hosts assemble Programs by hand.
type Program struct {
	Functions []*Function
	Entry     int
}

// VM executes a Program, firing line/call/return hook events as it
// goes and exposing its call stack through the hostvm.HostVM methods.
type VM struct {
	program *Program
	stack   []vmvalue.Value
	frames  []*frame
	globals *globalEnv

	hook                              func(hostvm.Event)
	hookLines, hookCalls, hookReturns bool

	finalizers []func()
	result     vmvalue.Value
	halted     bool
}

// NewVM creates a VM ready to run program. All hook classes are
// enabled by default; callers wanting the RUN-with-no-breakpoints
// optimization call SetHookMask themselves.
func NewVM(program *Program) *VM {
	return &VM{
		program:     program,
		globals:     newGlobalEnv(),
		hookLines:   true,
		hookCalls:   true,
		hookReturns: true,
	}
}

// GlobalsEnv exposes the VM's shared global environment so a host
// program can seed it before Run.
func (vm *VM) GlobalsEnv() *globalEnv { return vm.globals }

// Run executes the program's entry function to completion (or until
// the hook detaches execution by never resuming — not possible here
// since hook invocation is synchronous within Run's goroutine).
func (vm *VM) Run() (vmvalue.Value, error) {
	if vm.program == nil || len(vm.program.Functions) == 0 {
		return nil, fmt.Errorf("vm: empty program")
	}
	entry := vm.program.Functions[vm.program.Entry]
	vm.frames = append(vm.frames, newFrame(entry, nil))
	vm.result = vmvalue.Nil{}
	vm.halted = false

	err := vm.runLoop()

	for _, fn := range vm.finalizers {
		fn()
	}
	return vm.result, err
}

func (vm *VM) runLoop() error {
	for !vm.halted && len(vm.frames) > 0 {
		f := vm.frames[len(vm.frames)-1]
		if f.pc >= len(f.fn.Code) {
			if err := vm.execReturn(Instruction{}); err != nil {
				return err
			}
			continue
		}

		instr := f.fn.Code[f.pc]
		if instr.Line != f.lastLine {
			f.lastLine = instr.Line
			vm.fireHook(hostvm.Event{Kind: hostvm.EventLine, ShortSrc: f.fn.ShortSrc, CurrentLine: instr.Line}, vm.hookLines)
		}
		f.pc++

		if err := vm.step(f, instr); err != nil {
			return err
		}
	}
	return nil
}

func (vm *VM) step(f *frame, instr Instruction) error {
	switch instr.Op {
	case OpLoadConst:
		return vm.loadConst(f, instr.Operand)
	case OpLoadLocal:
		return vm.loadLocal(f, instr.Operand)
	case OpStoreLocal:
		return vm.storeLocal(f, instr.Operand)
	case OpLoadUpvalue:
		return vm.loadUpvalue(f, instr.Operand)
	case OpLoadGlobal:
		return vm.loadGlobal(f, instr.Operand)
	case OpStoreGlobal:
		return vm.storeGlobal(f, instr.Operand)
	case OpAdd, OpSub, OpMul, OpDiv:
		return vm.binArith(instr.Op)
	case OpEq, OpLt:
		return vm.binCompare(instr.Op)
	case OpNewTable:
		vm.push(vmvalue.NewTable())
		return nil
	case OpSetIndex:
		return vm.execSetIndex()
	case OpGetIndex:
		return vm.execGetIndex()
	case OpCall:
		return vm.execCall(instr)
	case OpReturn:
		return vm.execReturn(instr)
	case OpJump:
		f.pc = instr.Operand
		return nil
	case OpJumpIfFalse:
		cond, err := vm.pop()
		if err != nil {
			return err
		}
		if !truthy(cond) {
			f.pc = instr.Operand
		}
		return nil
	case OpPop:
		_, err := vm.pop()
		return err
	case OpHalt:
		vm.halted = true
		return nil
	default:
		return fmt.Errorf("vm: unknown opcode 0x%02x", byte(instr.Op))
	}
}

func truthy(v vmvalue.Value) bool {
	switch t := v.(type) {
	case vmvalue.Nil:
		return false
	case vmvalue.Bool:
		return bool(t)
	default:
		return true
	}
}

func (vm *VM) fireHook(ev hostvm.Event, enabled bool) {
	if vm.hook == nil || !enabled {
		return
	}
	vm.hook(ev)
}

func (vm *VM) push(v vmvalue.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() (vmvalue.Value, error) {
	if len(vm.stack) == 0 {
		return nil, fmt.Errorf("vm: stack underflow")
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}
