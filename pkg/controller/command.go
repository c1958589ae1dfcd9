package controller

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which of the grammar's shapes a parsed command is.
type Kind int

const (
	Step Kind = iota
	Over
	Run
	Finish
	ListLocals
	ListUpvalues
	ListGlobals
	PrintStack
	Watch
	SetBreakpoint
	DelBreakpoint
	ListBreakpoints
	Memory
	Eval
	Help

	// BpExport and BpImport are controller-local like Help: they never
	// reach the wire as themselves. Export round-trips one lb and
	// writes the result as YAML; import reads YAML and issues one sb
	// per entry.
	BpExport
	BpImport
)

// String names a Kind the way the wire grammar spells it, for use as
// a metrics/tracing label.
func (k Kind) String() string {
	switch k {
	case Step:
		return "s"
	case Over:
		return "o"
	case Run:
		return "r"
	case Finish:
		return "f"
	case ListLocals:
		return "ll"
	case ListUpvalues:
		return "lu"
	case ListGlobals:
		return "lg"
	case PrintStack:
		return "ps"
	case Watch:
		return "w"
	case SetBreakpoint:
		return "sb"
	case DelBreakpoint:
		return "db"
	case ListBreakpoints:
		return "lb"
	case Memory:
		return "m"
	case Eval:
		return "e"
	case Help:
		return "h"
	case BpExport:
		return "be"
	case BpImport:
		return "bi"
	default:
		return "?"
	}
}

// Resuming reports whether a command of this kind, once acknowledged,
// causes the debuggee to leave its command loop and resume script
// execution.
func (k Kind) Resuming() bool {
	switch k {
	case Step, Over, Run, Finish:
		return true
	default:
		return false
	}
}

// Command is a locally-validated, ready-to-send controller command.
// Wire is the exact text to send over the connection (without the NUL
// terminator, which Conn.WriteCommandLine appends). File is set only
// for the controller-local BpExport/BpImport shapes.
type Command struct {
	Kind Kind
	Wire string
	File string
}

// Parse validates tokens against the command grammar and, for every
// shape except the controller-local ones, produces the wire-ready
// command text. Arity and digit-class validation happens entirely
// here — an invalid local command never reaches the wire.
func Parse(tokens []string) (Command, error) {
	if len(tokens) == 0 {
		return Command{}, fmt.Errorf("Invalid command! Type 'h' for help.")
	}
	switch tokens[0] {
	case "s":
		return simple(Step, "s", tokens)
	case "o":
		return simple(Over, "o", tokens)
	case "r":
		return simple(Run, "r", tokens)
	case "f":
		return simple(Finish, "f", tokens)
	case "ps":
		return simple(PrintStack, "ps", tokens)
	case "lb":
		return simple(ListBreakpoints, "lb", tokens)
	case "h":
		return Command{Kind: Help}, nil
	case "ll":
		return withLevel(ListLocals, "ll", tokens)
	case "lu":
		return withLevel(ListUpvalues, "lu", tokens)
	case "lg":
		return withLevel(ListGlobals, "lg", tokens)
	case "w":
		return parseWatch(tokens)
	case "sb":
		return parsePathLine(SetBreakpoint, "sb", tokens)
	case "db":
		return parsePathLine(DelBreakpoint, "db", tokens)
	case "m":
		return parseMemory(tokens)
	case "e":
		// Reserved; sent as typed so the debuggee can answer for itself.
		return Command{Kind: Eval, Wire: strings.Join(tokens, " ")}, nil
	case "be":
		return withFile(BpExport, tokens)
	case "bi":
		return withFile(BpImport, tokens)
	default:
		return Command{}, fmt.Errorf("Invalid command! Type 'h' for help.")
	}
}

func simple(kind Kind, word string, tokens []string) (Command, error) {
	if len(tokens) != 1 {
		return Command{}, fmt.Errorf("Invalid command! Type 'h' for help.")
	}
	return Command{Kind: kind, Wire: word}, nil
}

// withLevel handles "ll"/"lu"/"lg", whose frame number is optional
// and defaults to 1, the innermost frame.
func withLevel(kind Kind, word string, tokens []string) (Command, error) {
	switch len(tokens) {
	case 1:
		return Command{Kind: kind, Wire: word + " 1"}, nil
	case 2:
		if !isFrameLevel(tokens[1]) {
			return Command{}, fmt.Errorf("Invalid command! Type 'h' for help.")
		}
		return Command{Kind: kind, Wire: word + " " + tokens[1]}, nil
	default:
		return Command{}, fmt.Errorf("Invalid command! Type 'h' for help.")
	}
}

func parsePathLine(kind Kind, word string, tokens []string) (Command, error) {
	if len(tokens) != 3 || !isDecimal(tokens[2]) {
		return Command{}, fmt.Errorf("Invalid command! Type 'h' for help.")
	}
	return Command{Kind: kind, Wire: word + " " + tokens[1] + " " + tokens[2]}, nil
}

func withFile(kind Kind, tokens []string) (Command, error) {
	if len(tokens) != 2 || tokens[1] == "" {
		return Command{}, fmt.Errorf("Invalid command! Type 'h' for help.")
	}
	return Command{Kind: kind, File: tokens[1]}, nil
}

func parseMemory(tokens []string) (Command, error) {
	if len(tokens) != 3 || !isHexAddr(tokens[1]) || !isDecimal(tokens[2]) {
		return Command{}, fmt.Errorf("Invalid command! Type 'h' for help.")
	}
	return Command{Kind: Memory, Wire: "m " + tokens[1] + " " + tokens[2]}, nil
}

// parseWatch handles both WATCH shapes. Tokens already had quoted
// spans collapsed by Tokenize, so a name's fieldpath tail is matched
// verbatim against the remaining token text.
func parseWatch(tokens []string) (Command, error) {
	rest := tokens[1:]
	trailing := ""
	if n := len(rest); n > 0 && rest[n-1] == "r" {
		trailing = " r"
		rest = rest[:n-1]
	}
	switch len(rest) {
	case 0:
		return Command{Kind: Watch, Wire: "w" + trailing}, nil
	case 1:
		return Command{Kind: Watch, Wire: "w " + rest[0] + trailing}, nil
	case 3:
		if !isFrameLevel(rest[0]) {
			return Command{}, fmt.Errorf("Invalid command! Type 'h' for help.")
		}
		switch rest[1] {
		case "l", "u", "g":
		default:
			return Command{}, fmt.Errorf("Invalid command! Type 'h' for help.")
		}
		return Command{Kind: Watch, Wire: "w " + rest[0] + " " + rest[1] + " " + rest[2] + trailing}, nil
	default:
		return Command{}, fmt.Errorf("Invalid command! Type 'h' for help.")
	}
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isFrameLevel accepts a decimal frame number >= 1. "0" (or "00") is
// as invalid as a non-digit token and never reaches the wire.
func isFrameLevel(s string) bool {
	if !isDecimal(s) {
		return false
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= 1
}

func isHexAddr(s string) bool {
	s = trimHexPrefix(s)
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 16, 64)
	return err == nil
}

func trimHexPrefix(s string) string {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
