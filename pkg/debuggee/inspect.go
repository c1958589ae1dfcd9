package debuggee

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/glyphlang/rdb/pkg/fieldpath"
	"github.com/glyphlang/rdb/pkg/hostvm"
	"github.com/glyphlang/rdb/pkg/proto"
	"github.com/glyphlang/rdb/pkg/vmvalue"
)

func (s *Session) cmdListLocals(tokens []string) error {
	level, err := parseLevel(tokens)
	if err != nil {
		return s.conn.WriteError("%s", err.Error())
	}
	locals, lerr := s.host.Locals(level)
	if lerr != nil {
		return s.conn.WriteError("%s", lerr.Error())
	}
	if err := s.conn.BeginOK(); err != nil {
		return err
	}
	fw := proto.NewFrameWriter(s.conn)
	for _, nv := range locals {
		if strings.HasPrefix(nv.Name, "(") {
			continue
		}
		if err := fw.S(nv.Name); err != nil {
			return err
		}
		if err := fw.Value(nv.Value); err != nil {
			return err
		}
	}
	return fw.Flush()
}

func (s *Session) cmdListUpvalues(tokens []string) error {
	level, err := parseLevel(tokens)
	if err != nil {
		return s.conn.WriteError("%s", err.Error())
	}
	ups, uerr := s.host.Upvalues(level)
	if uerr != nil {
		return s.conn.WriteError("%s", uerr.Error())
	}
	if err := s.conn.BeginOK(); err != nil {
		return err
	}
	fw := proto.NewFrameWriter(s.conn)
	for _, nv := range ups {
		if err := fw.S(nv.Name); err != nil {
			return err
		}
		if err := fw.Value(nv.Value); err != nil {
			return err
		}
	}
	return fw.Flush()
}

func (s *Session) cmdListGlobals(tokens []string) error {
	level, err := parseLevel(tokens)
	if err != nil {
		return s.conn.WriteError("%s", err.Error())
	}
	globals, gerr := s.host.Globals(level)
	if gerr != nil {
		return s.conn.WriteError("%s", gerr.Error())
	}
	if err := s.conn.BeginOK(); err != nil {
		return err
	}
	fw := proto.NewFrameWriter(s.conn)
	for _, nv := range globals {
		if !isValidIdentifier(nv.Name) {
			continue
		}
		if err := fw.S(nv.Name); err != nil {
			return err
		}
		if err := fw.Value(nv.Value); err != nil {
			return err
		}
	}
	return fw.Flush()
}

func isValidIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		isAlpha := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if i == 0 && !isAlpha {
			return false
		}
		if i > 0 && !isAlpha && !isDigit {
			return false
		}
	}
	return true
}

// cmdWatch implements WATCH in both its addressed and cached forms.
// tokens is everything after the "w" command word.
func (s *Session) cmdWatch(tokens []string) error {
	cache := false
	if n := len(tokens); n > 0 && tokens[n-1] == "r" {
		cache = true
		tokens = tokens[:n-1]
	}

	var root vmvalue.Value
	var pathText string

	if len(tokens) > 0 && isFrameLevel(tokens[0]) {
		if len(tokens) != 3 {
			return s.conn.WriteError("Invalid command! Type 'h' for help.")
		}
		level, lerr := strconv.Atoi(tokens[0])
		if lerr != nil || level < 1 {
			return s.conn.WriteError("Invalid command! Type 'h' for help.")
		}
		nameTok := tokens[2]
		name := nameTok
		if idx := strings.IndexByte(nameTok, '|'); idx >= 0 {
			name = nameTok[:idx]
			pathText = nameTok[idx:]
		}
		v, err := s.resolveNamed(level, tokens[1], name)
		if err != nil {
			return s.conn.WriteError("Variable is not found!")
		}
		root = v
	} else {
		if len(tokens) > 1 {
			return s.conn.WriteError("Invalid command! Type 'h' for help.")
		}
		if len(tokens) == 1 {
			pathText = tokens[0]
		}
		if s.cacheValue == nil {
			return s.conn.WriteError("Variable is not found!")
		}
		root = s.cacheValue
	}

	sels, perr := fieldpath.Parse(pathText)
	if perr != nil {
		return s.conn.WriteError("%s", perr.Error())
	}
	resolved, werr := s.walk(root, sels)
	if werr != nil {
		return s.conn.WriteError("Field is not found!")
	}
	if cache {
		s.cacheValue = resolved
	}
	return s.writeWatchResponse(resolved)
}

func isFrameLevel(tok string) bool {
	if tok == "" {
		return false
	}
	for i := 0; i < len(tok); i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return false
		}
	}
	return true
}

func (s *Session) resolveNamed(level int, scope, name string) (vmvalue.Value, error) {
	switch scope {
	case "l":
		locals, err := s.host.Locals(level)
		if err != nil {
			return nil, err
		}
		return lastMatch(locals, name)
	case "u":
		ups, err := s.host.Upvalues(level)
		if err != nil {
			return nil, err
		}
		return firstMatch(ups, name)
	case "g":
		globals, err := s.host.Globals(level)
		if err != nil {
			return nil, err
		}
		return firstMatch(globals, name)
	default:
		return nil, fmt.Errorf("invalid scope %q", scope)
	}
}

// lastMatch implements the shadowing tie-break for locals: the last
// (highest slot index) local sharing a name wins.
func lastMatch(vs []hostvm.NamedValue, name string) (vmvalue.Value, error) {
	var found vmvalue.Value
	ok := false
	for _, nv := range vs {
		if nv.Name == name {
			found, ok = nv.Value, true
		}
	}
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return found, nil
}

func firstMatch(vs []hostvm.NamedValue, name string) (vmvalue.Value, error) {
	for _, nv := range vs {
		if nv.Name == name {
			return nv.Value, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

// walk applies each field-path selector in turn against current:
// typed keys, identity keys, and metatable traversal.
func (s *Session) walk(root vmvalue.Value, sels []fieldpath.Selector) (vmvalue.Value, error) {
	current := root
	for _, sel := range sels {
		switch sel.Kind {
		case fieldpath.Meta:
			mt := vmvalue.Metatable(current)
			if mt == nil {
				return nil, fmt.Errorf("no metatable")
			}
			current = mt
		case fieldpath.NumberKey, fieldpath.StringKey, fieldpath.BoolKey:
			tbl, ok := current.(*vmvalue.Table)
			if !ok {
				return nil, fmt.Errorf("not a table")
			}
			v, ok := tbl.Get(sel.KeyValue())
			if !ok {
				return nil, fmt.Errorf("key not found")
			}
			current = v
		case fieldpath.LightUserDataKey:
			tbl, ok := current.(*vmvalue.Table)
			if !ok {
				return nil, fmt.Errorf("not a table")
			}
			v, ok := tbl.Get(vmvalue.LightUserData(sel.Address))
			if !ok {
				return nil, fmt.Errorf("key not found")
			}
			current = v
		case fieldpath.Identity:
			tbl, ok := current.(*vmvalue.Table)
			if !ok {
				return nil, fmt.Errorf("not a table")
			}
			v, ok := tbl.FindByIdentity(sel.IdentityKind, sel.Address)
			if !ok {
				return nil, fmt.Errorf("identity not found")
			}
			current = v
		}
	}
	return current, nil
}

// writeWatchResponse serializes the resolved value per the WATCH
// response schema: root value, hasMeta flag, then a kind-specific
// tail.
func (s *Session) writeWatchResponse(v vmvalue.Value) error {
	if err := s.conn.BeginOK(); err != nil {
		return err
	}
	fw := proto.NewFrameWriter(s.conn)
	if err := fw.Value(v); err != nil {
		return err
	}
	hasMeta := 0
	if vmvalue.Metatable(v) != nil {
		hasMeta = 1
	}
	if err := fw.D(hasMeta); err != nil {
		return err
	}
	switch val := v.(type) {
	case *vmvalue.Table:
		for _, p := range val.Pairs() {
			if err := fw.Value(p.Key); err != nil {
				return err
			}
			if err := fw.Value(p.Val); err != nil {
				return err
			}
		}
	case *vmvalue.UserData:
		if err := fw.D(val.Size); err != nil {
			return err
		}
	case *vmvalue.Function:
		what := val.What
		if what == "" {
			what = "[N/A]"
		}
		if err := fw.S(what); err != nil {
			return err
		}
		if err := fw.S(val.ShortSrc); err != nil {
			return err
		}
		if err := fw.D(val.LineDefined); err != nil {
			return err
		}
		if err := fw.D(val.LastLineDefined); err != nil {
			return err
		}
	case *vmvalue.Thread:
		if err := fw.D(val.Status); err != nil {
			return err
		}
	}
	return fw.Flush()
}
