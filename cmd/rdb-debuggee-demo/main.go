// Command rdb-debuggee-demo is a minimal host program: it builds a
// small hand-assembled script (no compiler exists in this
// repository), connects to a waiting controller at REMOTE_LDB, and
// runs it under the debuggee hook. It exists to exercise pkg/vm and
// pkg/debuggee end to end the way a real embedder would wire them
// together.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/glyphlang/rdb/pkg/config"
	"github.com/glyphlang/rdb/pkg/debuggee"
	"github.com/glyphlang/rdb/pkg/logging"
	"github.com/glyphlang/rdb/pkg/proto"
	"github.com/glyphlang/rdb/pkg/vm"
	"github.com/glyphlang/rdb/pkg/vmvalue"
)

func main() {
	ep, err := config.DebuggeeEndpoint()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	nc, err := net.Dial("tcp", ep.String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "rdb-debuggee-demo: could not reach controller at %s: %v\n", ep, err)
		os.Exit(1)
	}
	defer nc.Close()

	log, _ := logging.NewLogger(logging.LoggerConfig{Level: logging.INFO, Format: logging.TextFormat, Output: os.Stderr})

	program := buildDemoProgram()
	machine := vm.NewVM(program)
	machine.GlobalsEnv().Set("greeting", vmvalue.Str("hello, debugger"))

	sess := debuggee.New(machine, proto.NewConn(nc), log)
	sess.Attach()

	if _, err := machine.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "rdb-debuggee-demo: script error: %v\n", err)
		os.Exit(1)
	}
}

// buildDemoProgram hand-assembles:
//
//	function main()
//	    local x = add(2, 3)
//	    return x
//	end
//	function add(a, b)
//	    return a + b
//	end
func buildDemoProgram() *vm.Program {
	add := &vm.Function{
		Name:            "add",
		ShortSrc:        "demo.glyph",
		What:            "script",
		LineDefined:     5,
		LastLineDefined: 7,
		LocalNames:      []string{"a", "b"},
		Code: []vm.Instruction{
			{Op: vm.OpLoadLocal, Operand: 0, Line: 6},
			{Op: vm.OpLoadLocal, Operand: 1, Line: 6},
			{Op: vm.OpAdd, Line: 6},
			{Op: vm.OpReturn, Line: 6},
		},
	}

	main := &vm.Function{
		Name:            "main",
		ShortSrc:        "demo.glyph",
		What:            "main",
		LineDefined:     1,
		LastLineDefined: 4,
		LocalNames:      []string{"x"},
		Constants:       []vmvalue.Value{vmvalue.Int(2), vmvalue.Int(3)},
		Code: []vm.Instruction{
			{Op: vm.OpLoadConst, Operand: 0, Line: 2},
			{Op: vm.OpLoadConst, Operand: 1, Line: 2},
			{Op: vm.OpCall, Operand: 1, Arg2: 2, Line: 2},
			{Op: vm.OpStoreLocal, Operand: 0, Line: 2},
			{Op: vm.OpLoadLocal, Operand: 0, Line: 3},
			{Op: vm.OpReturn, Line: 3},
		},
	}

	return &vm.Program{Functions: []*vm.Function{main, add}, Entry: 0}
}
