package vm

import (
	"fmt"

	"github.com/glyphlang/rdb/pkg/hostvm"
	"github.com/glyphlang/rdb/pkg/vmvalue"
)

func (vm *VM) loadConst(f *frame, idx int) error {
	if idx < 0 || idx >= len(f.fn.Constants) {
		return fmt.Errorf("vm: constant index out of range: %d", idx)
	}
	vm.push(f.fn.Constants[idx])
	return nil
}

func (vm *VM) loadLocal(f *frame, slot int) error {
	if slot < 0 || slot >= len(f.locals) {
		return fmt.Errorf("vm: local slot out of range: %d", slot)
	}
	v := f.locals[slot]
	if v == nil {
		v = vmvalue.Nil{}
	}
	vm.push(v)
	return nil
}

func (vm *VM) storeLocal(f *frame, slot int) error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	if slot < 0 || slot >= len(f.locals) {
		return fmt.Errorf("vm: local slot out of range: %d", slot)
	}
	f.locals[slot] = v
	return nil
}

func (vm *VM) loadUpvalue(f *frame, idx int) error {
	if idx < 0 || idx >= len(f.upvalues) {
		return fmt.Errorf("vm: upvalue index out of range: %d", idx)
	}
	vm.push(f.upvalues[idx])
	return nil
}

func constName(f *frame, idx int) (string, error) {
	if idx < 0 || idx >= len(f.fn.Constants) {
		return "", fmt.Errorf("vm: constant index out of range: %d", idx)
	}
	s, ok := f.fn.Constants[idx].(vmvalue.Str)
	if !ok {
		return "", fmt.Errorf("vm: constant %d is not a string", idx)
	}
	return string(s), nil
}

func (vm *VM) loadGlobal(f *frame, constIdx int) error {
	name, err := constName(f, constIdx)
	if err != nil {
		return err
	}
	v, ok := vm.globals.Get(name)
	if !ok {
		v = vmvalue.Nil{}
	}
	vm.push(v)
	return nil
}

func (vm *VM) storeGlobal(f *frame, constIdx int) error {
	name, err := constName(f, constIdx)
	if err != nil {
		return err
	}
	v, err := vm.pop()
	if err != nil {
		return err
	}
	vm.globals.Set(name, v)
	return nil
}

func (vm *VM) binArith(op Opcode) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	an, aok := a.(vmvalue.Number)
	bn, bok := b.(vmvalue.Number)
	if !aok || !bok {
		return fmt.Errorf("vm: arithmetic on non-number operands")
	}
	if an.IsInt && bn.IsInt {
		var r int64
		switch op {
		case OpAdd:
			r = an.I + bn.I
		case OpSub:
			r = an.I - bn.I
		case OpMul:
			r = an.I * bn.I
		case OpDiv:
			if bn.I == 0 {
				vm.push(vmvalue.Float(float64(an.I) / 0))
				return nil
			}
			r = an.I / bn.I
		}
		vm.push(vmvalue.Int(r))
		return nil
	}
	af, bf := asFloat(an), asFloat(bn)
	var r float64
	switch op {
	case OpAdd:
		r = af + bf
	case OpSub:
		r = af - bf
	case OpMul:
		r = af * bf
	case OpDiv:
		r = af / bf
	}
	vm.push(vmvalue.Float(r))
	return nil
}

func asFloat(n vmvalue.Number) float64 {
	if n.IsInt {
		return float64(n.I)
	}
	return n.F
}

func (vm *VM) binCompare(op Opcode) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	switch op {
	case OpEq:
		vm.push(vmvalue.Bool(valuesEqual(a, b)))
	case OpLt:
		an, aok := a.(vmvalue.Number)
		bn, bok := b.(vmvalue.Number)
		if !aok || !bok {
			return fmt.Errorf("vm: comparison on non-number operands")
		}
		vm.push(vmvalue.Bool(asFloat(an) < asFloat(bn)))
	}
	return nil
}

func valuesEqual(a, b vmvalue.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case vmvalue.Nil:
		return true
	case vmvalue.Bool:
		return av == b.(vmvalue.Bool)
	case vmvalue.Number:
		bv := b.(vmvalue.Number)
		return asFloat(av) == asFloat(bv)
	case vmvalue.Str:
		return av == b.(vmvalue.Str)
	default:
		return a.Identity() == b.Identity()
	}
}

func (vm *VM) execSetIndex() error {
	val, err := vm.pop()
	if err != nil {
		return err
	}
	key, err := vm.pop()
	if err != nil {
		return err
	}
	tv, err := vm.pop()
	if err != nil {
		return err
	}
	tbl, ok := tv.(*vmvalue.Table)
	if !ok {
		return fmt.Errorf("vm: cannot index a %s value", tv.Kind())
	}
	tbl.Set(key, val)
	return nil
}

func (vm *VM) execGetIndex() error {
	key, err := vm.pop()
	if err != nil {
		return err
	}
	tv, err := vm.pop()
	if err != nil {
		return err
	}
	tbl, ok := tv.(*vmvalue.Table)
	if !ok {
		return fmt.Errorf("vm: cannot index a %s value", tv.Kind())
	}
	v, ok := tbl.Get(key)
	if !ok {
		v = vmvalue.Nil{}
	}
	vm.push(v)
	return nil
}

// execCall pops Arg2 argument values (in reverse push order) off the
// stack, binds them to the callee's first locals slots, and pushes a
// new frame. The Call hook fires for the callee before its first
// instruction runs, matching how a line hook would naturally follow.
func (vm *VM) execCall(instr Instruction) error {
	fnIdx := instr.Operand
	if fnIdx < 0 || fnIdx >= len(vm.program.Functions) {
		return fmt.Errorf("vm: function index out of range: %d", fnIdx)
	}
	callee := vm.program.Functions[fnIdx]

	argc := instr.Arg2
	if argc > len(vm.stack) {
		return fmt.Errorf("vm: call argument underflow")
	}
	args := make([]vmvalue.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		v, err := vm.pop()
		if err != nil {
			return err
		}
		args[i] = v
	}

	nf := newFrame(callee, nil)
	for i := 0; i < len(args) && i < len(nf.locals); i++ {
		nf.locals[i] = args[i]
	}
	nf.tailCaller = instr.Tail
	vm.frames = append(vm.frames, nf)

	vm.fireHook(hostvm.Event{Kind: hostvm.EventCall, ShortSrc: callee.ShortSrc, CurrentLine: callee.LineDefined}, vm.hookCalls)
	return nil
}

// execReturn pops the current frame, fires its Return/TailReturn hook,
// and hands the return value to the caller's stack (or stores it as
// the program's final result when no caller remains).
func (vm *VM) execReturn(instr Instruction) error {
	if len(vm.frames) == 0 {
		return fmt.Errorf("vm: return with no active frame")
	}
	f := vm.frames[len(vm.frames)-1]

	var retVal vmvalue.Value = vmvalue.Nil{}
	if len(vm.stack) > 0 && instr.Op == OpReturn {
		v, err := vm.pop()
		if err != nil {
			return err
		}
		retVal = v
	}

	kind := hostvm.EventReturn
	if f.tailCaller {
		kind = hostvm.EventTailReturn
	}
	vm.fireHook(hostvm.Event{Kind: kind, ShortSrc: f.fn.ShortSrc, CurrentLine: f.fn.LastLineDefined}, vm.hookReturns)

	vm.frames = vm.frames[:len(vm.frames)-1]
	if len(vm.frames) == 0 {
		vm.result = retVal
		vm.halted = true
		return nil
	}
	vm.push(retVal)
	return nil
}
