// Package fieldpath parses the field-path selector grammar: a
// '|'-joined sequence of selectors describing a walk from a root
// value to a subvalue via keys, metatables, or identity.
package fieldpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/glyphlang/rdb/pkg/vmvalue"
)

// Kind distinguishes the selector forms.
type Kind int

const (
	Meta Kind = iota
	NumberKey
	StringKey
	BoolKey
	LightUserDataKey
	Identity
)

// Selector is one step of a field path.
type Selector struct {
	Kind Kind

	Number  vmvalue.Number // NumberKey
	String  string         // StringKey
	Bool    bool           // BoolKey
	Address uintptr        // LightUserDataKey, Identity

	// IdentityKind is which reference kind an Identity selector's
	// letter names. Each selector letter binds to exactly one
	// vmvalue.Kind, and lookup is filtered by it — a table and a
	// function that happen to share an address must not match each
	// other's selectors.
	IdentityKind vmvalue.Kind
}

// Parse splits s on '|' and parses each non-empty token as a selector.
// Both ends of the grammar collapse to the same call: an addressed
// WATCH's fieldpath text is "|"-prefixed right after the variable name
// (the leading empty token is simply skipped), a cached WATCH's
// fieldpath has no such prefix, and "|" alone (select the current
// value) yields zero selectors either way.
func Parse(s string) ([]Selector, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, "|")
	out := make([]Selector, 0, len(parts))
	for _, tok := range parts {
		if tok == "" {
			continue
		}
		sel, err := parseOne(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, sel)
	}
	return out, nil
}

func parseOne(tok string) (Selector, error) {
	switch tok[0] {
	case 'm':
		if len(tok) != 1 {
			return Selector{}, fmt.Errorf("invalid metatable selector: %q", tok)
		}
		return Selector{Kind: Meta}, nil
	case 'n':
		return parseNumberKey(tok[1:])
	case 's':
		return parseStringKey(tok[1:])
	case 'b':
		return parseBoolKey(tok[1:])
	case 'U':
		addr, err := parseHex(tok[1:])
		if err != nil {
			return Selector{}, err
		}
		return Selector{Kind: LightUserDataKey, Address: addr}, nil
	case 't', 'u', 'f', 'd':
		addr, err := parseHex(tok[1:])
		if err != nil {
			return Selector{}, err
		}
		return Selector{Kind: Identity, Address: addr, IdentityKind: kindForLetter(tok[0])}, nil
	default:
		return Selector{}, fmt.Errorf("unknown field selector: %q", tok)
	}
}

func kindForLetter(b byte) vmvalue.Kind {
	switch b {
	case 't':
		return vmvalue.KindTable
	case 'u':
		return vmvalue.KindUserData
	case 'f':
		return vmvalue.KindFunction
	case 'd':
		return vmvalue.KindThread
	default:
		return vmvalue.KindNil
	}
}

func parseNumberKey(rest string) (Selector, error) {
	if rest == "" {
		return Selector{}, fmt.Errorf("empty numeric key selector")
	}
	if strings.ContainsAny(rest, ".eE") {
		f, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return Selector{}, fmt.Errorf("invalid numeric key %q: %w", rest, err)
		}
		return Selector{Kind: NumberKey, Number: vmvalue.Float(f)}, nil
	}
	i, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return Selector{}, fmt.Errorf("invalid numeric key %q: %w", rest, err)
	}
	return Selector{Kind: NumberKey, Number: vmvalue.Int(i)}, nil
}

func parseStringKey(rest string) (Selector, error) {
	if len(rest) < 2 || rest[0] != '\'' || rest[len(rest)-1] != '\'' {
		return Selector{}, fmt.Errorf("invalid string key selector %q: expected 'quoted' bytes", rest)
	}
	return Selector{Kind: StringKey, String: rest[1 : len(rest)-1]}, nil
}

func parseBoolKey(rest string) (Selector, error) {
	switch rest {
	case "0":
		return Selector{Kind: BoolKey, Bool: false}, nil
	case "1":
		return Selector{Kind: BoolKey, Bool: true}, nil
	default:
		return Selector{}, fmt.Errorf("invalid boolean key selector %q: expected 0 or 1", rest)
	}
}

func parseHex(rest string) (uintptr, error) {
	rest = strings.TrimPrefix(rest, "0x")
	rest = strings.TrimPrefix(rest, "0X")
	if rest == "" {
		return 0, fmt.Errorf("empty hex address")
	}
	v, err := strconv.ParseUint(rest, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hex address %q: %w", rest, err)
	}
	return uintptr(v), nil
}

// KeyValue turns a NumberKey/StringKey/BoolKey selector into the
// vmvalue.Value used to index a table. It panics if called on a
// selector that isn't one of those three kinds — callers must check
// Kind first.
func (s Selector) KeyValue() vmvalue.Value {
	switch s.Kind {
	case NumberKey:
		return s.Number
	case StringKey:
		return vmvalue.Str(s.String)
	case BoolKey:
		return vmvalue.Bool(s.Bool)
	default:
		panic("fieldpath: KeyValue called on a non-key selector")
	}
}
