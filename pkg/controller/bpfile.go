package controller

import (
	"fmt"
	"os"

	"github.com/glyphlang/rdb/pkg/breakpoints"
)

// exportBreakpoints runs one LIST_BREAKPOINTS round-trip and writes
// the result to file as YAML. The returned message is for the user's
// terminal; err is a transport failure, fatal to the REPL.
func exportBreakpoints(client *Client, file string) (string, error) {
	reply, err := client.Do(Command{Kind: ListBreakpoints, Wire: "lb"})
	if err != nil {
		return "", err
	}
	if reply.Err != "" {
		return reply.Err, nil
	}
	entries := make([]breakpoints.Entry, len(reply.Breakpoints))
	for i, bp := range reply.Breakpoints {
		entries[i] = breakpoints.Entry{Path: bp.Path, Line: bp.Line}
	}
	f, ferr := os.Create(file)
	if ferr != nil {
		return ferr.Error(), nil
	}
	defer f.Close()
	if werr := breakpoints.SaveYAML(f, entries); werr != nil {
		return werr.Error(), nil
	}
	return fmt.Sprintf("exported %d breakpoint(s) to %s", len(entries), file), nil
}

// importBreakpoints reads a YAML breakpoint set from file and issues
// one SET_BREAKPOINT per entry. Entries the debuggee rejects (bad
// path) are counted and reported, not fatal.
func importBreakpoints(client *Client, file string) (string, error) {
	f, ferr := os.Open(file)
	if ferr != nil {
		return ferr.Error(), nil
	}
	defer f.Close()
	entries, lerr := breakpoints.LoadYAML(f)
	if lerr != nil {
		return lerr.Error(), nil
	}

	set, rejected := 0, 0
	for _, e := range entries {
		reply, err := client.Do(Command{
			Kind: SetBreakpoint,
			Wire: fmt.Sprintf("sb %s %d", e.Path, e.Line),
		})
		if err != nil {
			return "", err
		}
		if reply.Err != "" {
			rejected++
			continue
		}
		set++
	}
	if rejected > 0 {
		return fmt.Sprintf("set %d breakpoint(s), %d rejected", set, rejected), nil
	}
	return fmt.Sprintf("set %d breakpoint(s) from %s", set, file), nil
}
