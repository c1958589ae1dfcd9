package vm

import (
	"testing"

	"github.com/glyphlang/rdb/pkg/hostvm"
	"github.com/glyphlang/rdb/pkg/vmvalue"
	"github.com/stretchr/testify/require"
)

func simpleProgram() *Program {
	main := &Function{
		Name:            "main",
		ShortSrc:        "foo.lua",
		What:            "main",
		LineDefined:     1,
		LastLineDefined: 5,
		LocalNames:      []string{"x"},
		Constants:       []vmvalue.Value{vmvalue.Int(40), vmvalue.Int(2)},
		Code: []Instruction{
			{Op: OpLoadConst, Operand: 0, Line: 3},
			{Op: OpLoadConst, Operand: 1, Line: 3},
			{Op: OpAdd, Line: 3},
			{Op: OpStoreLocal, Operand: 0, Line: 3},
			{Op: OpLoadLocal, Operand: 0, Line: 4},
			{Op: OpReturn, Line: 4},
		},
	}
	return &Program{Functions: []*Function{main}, Entry: 0}
}

func TestVMRunReturnsTopOfStack(t *testing.T) {
	v := NewVM(simpleProgram())
	result, err := v.Run()
	require.NoError(t, err)
	n, ok := result.(vmvalue.Number)
	require.True(t, ok)
	require.Equal(t, int64(42), n.I)
}

func TestVMLineHookFiresOncePerDistinctLine(t *testing.T) {
	v := NewVM(simpleProgram())
	var lines []int
	v.SetHook(func(ev hostvm.Event) {
		if ev.Kind == hostvm.EventLine {
			lines = append(lines, ev.CurrentLine)
		}
	})
	_, err := v.Run()
	require.NoError(t, err)
	require.Equal(t, []int{3, 4}, lines)
}

func TestVMCallAndReturnFireHooks(t *testing.T) {
	callee := &Function{
		Name: "callee", ShortSrc: "foo.lua", What: "function",
		LineDefined: 10, LastLineDefined: 12,
		LocalNames: []string{"a"},
		Code: []Instruction{
			{Op: OpLoadLocal, Operand: 0, Line: 11},
			{Op: OpReturn, Line: 11},
		},
	}
	main := &Function{
		Name: "main", ShortSrc: "foo.lua", What: "main",
		LineDefined: 1, LastLineDefined: 5,
		Constants: []vmvalue.Value{vmvalue.Int(7)},
		Code: []Instruction{
			{Op: OpLoadConst, Operand: 0, Line: 2},
			{Op: OpCall, Operand: 1, Arg2: 1, Line: 2},
			{Op: OpReturn, Line: 2},
		},
	}
	prog := &Program{Functions: []*Function{main, callee}, Entry: 0}
	v := NewVM(prog)

	var kinds []hostvm.EventKind
	v.SetHook(func(ev hostvm.Event) {
		if ev.Kind != hostvm.EventLine {
			kinds = append(kinds, ev.Kind)
		}
	})

	result, err := v.Run()
	require.NoError(t, err)
	n := result.(vmvalue.Number)
	require.Equal(t, int64(7), n.I)
	require.Equal(t, []hostvm.EventKind{hostvm.EventCall, hostvm.EventReturn, hostvm.EventReturn}, kinds)
}

func TestVMTailReturnHook(t *testing.T) {
	callee := &Function{
		Name: "callee", ShortSrc: "foo.lua", What: "function",
		Code: []Instruction{{Op: OpReturn, Line: 20}},
	}
	main := &Function{
		Name: "main", ShortSrc: "foo.lua", What: "main",
		Code: []Instruction{
			{Op: OpCall, Operand: 1, Arg2: 0, Line: 1, Tail: true},
			{Op: OpReturn, Line: 1},
		},
	}
	prog := &Program{Functions: []*Function{main, callee}, Entry: 0}
	v := NewVM(prog)

	var kinds []hostvm.EventKind
	v.SetHook(func(ev hostvm.Event) {
		if ev.Kind != hostvm.EventLine {
			kinds = append(kinds, ev.Kind)
		}
	})
	_, err := v.Run()
	require.NoError(t, err)
	require.Equal(t, []hostvm.EventKind{hostvm.EventCall, hostvm.EventTailReturn, hostvm.EventReturn}, kinds)
}

func TestFrameWalkLocalsAndGlobals(t *testing.T) {
	main := &Function{
		Name: "main", ShortSrc: "foo.lua", What: "main",
		LineDefined: 1, LastLineDefined: 9,
		LocalNames: []string{"x", "x"}, // shadowed: slot 1 wins on tie
		Constants:  []vmvalue.Value{vmvalue.Int(1), vmvalue.Int(2), vmvalue.Str("g"), vmvalue.Int(99)},
		Code: []Instruction{
			{Op: OpLoadConst, Operand: 0, Line: 2},
			{Op: OpStoreLocal, Operand: 0, Line: 2},
			{Op: OpLoadConst, Operand: 1, Line: 3},
			{Op: OpStoreLocal, Operand: 1, Line: 3},
			{Op: OpLoadConst, Operand: 3, Line: 4},
			{Op: OpStoreGlobal, Operand: 2, Line: 4},
			{Op: OpHalt, Line: 5},
		},
	}
	prog := &Program{Functions: []*Function{main}, Entry: 0}
	v := NewVM(prog)
	v.SetHook(func(ev hostvm.Event) {
		if ev.Kind == hostvm.EventLine && ev.CurrentLine == 5 {
			locals, err := v.Locals(1)
			require.NoError(t, err)
			require.Len(t, locals, 2)
			require.Equal(t, "x", locals[1].Name)
			n := locals[1].Value.(vmvalue.Number)
			require.Equal(t, int64(2), n.I)

			globals, err := v.Globals(1)
			require.NoError(t, err)
			require.Len(t, globals, 1)
			require.Equal(t, "g", globals[0].Name)
		}
	})
	_, err := v.Run()
	require.NoError(t, err)
}

func TestFrameOutOfRangeLevel(t *testing.T) {
	v := NewVM(simpleProgram())
	_, err := v.Run()
	require.NoError(t, err)
	_, err = v.Frame(1)
	require.Error(t, err)
}
