// Package vmvalue models the dynamically-typed value graph of the
// debugged scripting VM: a tagged union over the VM's value kinds, with
// a stable, pointer-derived identity for reference kinds so the
// debugger's field-path walker can do identity-based key lookup the
// same way the host VM's own table implementation would.
package vmvalue

import "unsafe"

// Kind is one of the VM's value kinds. The byte each Kind maps to via
// Letter is both the tag used on the wire and the selector letter
// used in a field path.
type Kind int

const (
	KindNil Kind = iota
	KindBoolean
	KindNumber
	KindString
	KindTable
	KindFunction
	KindUserData
	KindLightUserData
	KindThread
)

// Letter returns the single-byte tag/selector this kind is addressed by.
func (k Kind) Letter() byte {
	switch k {
	case KindNil:
		return 'l'
	case KindBoolean:
		return 'b'
	case KindNumber:
		return 'n'
	case KindString:
		return 's'
	case KindTable:
		return 't'
	case KindFunction:
		return 'f'
	case KindUserData:
		return 'u'
	case KindLightUserData:
		return 'U'
	case KindThread:
		return 'd'
	default:
		return '?'
	}
}

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindTable:
		return "table"
	case KindFunction:
		return "function"
	case KindUserData:
		return "userdata"
	case KindLightUserData:
		return "lightuserdata"
	case KindThread:
		return "thread"
	default:
		return "unknown"
	}
}

// Value is any value the VM's execution engine can push, store, or
// return. Identity() is meaningful only for reference kinds (Table,
// Function, UserData, Thread); for the others it returns 0.
type Value interface {
	Kind() Kind
	Identity() uintptr
}

// Nil is the VM's nil/null value.
type Nil struct{}

func (Nil) Kind() Kind        { return KindNil }
func (Nil) Identity() uintptr { return 0 }

// Bool is a boolean value.
type Bool bool

func (Bool) Kind() Kind        { return KindBoolean }
func (Bool) Identity() uintptr { return 0 }

// Number is a VM number. The VM chooses at runtime whether a given
// number is carried as an integer or a float; IsInt records which, so
// the wire encoder's %N verb can pick the right rendering.
type Number struct {
	IsInt bool
	I     int64
	F     float64
}

func Int(v int64) Number     { return Number{IsInt: true, I: v} }
func Float(v float64) Number { return Number{IsInt: false, F: v} }

func (Number) Kind() Kind        { return KindNumber }
func (Number) Identity() uintptr { return 0 }

// Str is a raw byte string. The VM's strings are byte sequences, not
// necessarily valid UTF-8 text, which is why the wire format
// hex-encodes them rather than sending them as a quoted literal.
type Str string

func (Str) Kind() Kind { return KindString }

// Identity returns the address of the string's backing bytes. Unlike
// the other scalar kinds, the wire encoding for strings does carry
// an address — host VMs that intern strings expose it so a
// controller can recognize "the same string" across two watches the
// way it does for table/function/userdata/thread identities.
func (s Str) Identity() uintptr {
	if len(s) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.StringData(string(s))))
}

// LightUserData is a bare address with no backing Go allocation — the
// VM equivalent of a raw native pointer handed to script code.
type LightUserData uintptr

func (LightUserData) Kind() Kind          { return KindLightUserData }
func (l LightUserData) Identity() uintptr { return uintptr(l) }

// Table is an ordered key/value map, preserving insertion order the
// way a Lua-like table's array+hash parts appear to script code when
// iterated. Keys and values are compared structurally for the scalar
// kinds (nil/bool/number/string) and by identity for reference kinds.
type Table struct {
	entries []tableEntry
	Meta    *Table
}

type tableEntry struct {
	Key Value
	Val Value
}

func NewTable() *Table {
	return &Table{}
}

func (t *Table) Kind() Kind { return KindTable }

func (t *Table) Identity() uintptr {
	return uintptr(unsafe.Pointer(t))
}

// Set inserts or overwrites the value for key, preserving the
// position of an existing key and appending new keys at the end.
func (t *Table) Set(key, val Value) {
	for i := range t.entries {
		if keyEqual(t.entries[i].Key, key) {
			t.entries[i].Val = val
			return
		}
	}
	t.entries = append(t.entries, tableEntry{Key: key, Val: val})
}

// Get looks up key by structural or identity equality depending on
// kind, returning (nil, false) when absent.
func (t *Table) Get(key Value) (Value, bool) {
	for _, e := range t.entries {
		if keyEqual(e.Key, key) {
			return e.Val, true
		}
	}
	return nil, false
}

// Pairs returns the table's entries in iteration order. The slice is a
// copy; mutating it does not affect the table.
func (t *Table) Pairs() []struct{ Key, Val Value } {
	out := make([]struct{ Key, Val Value }, len(t.entries))
	for i, e := range t.entries {
		out[i] = struct{ Key, Val Value }{e.Key, e.Val}
	}
	return out
}

// FindByIdentity scans the table's values (not its keys) for the
// first one of the given kind whose identity matches id. This is
// what backs the field-path identity selectors t/u/f/d<hex>: the
// controller never needs to know a value's key, only a previously
// rendered identity tag.
func (t *Table) FindByIdentity(kind Kind, id uintptr) (Value, bool) {
	for _, e := range t.entries {
		if e.Val.Kind() == kind && e.Val.Identity() == id {
			return e.Val, true
		}
	}
	return nil, false
}

func keyEqual(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Nil:
		return true
	case Bool:
		return av == b.(Bool)
	case Number:
		bv := b.(Number)
		if av.IsInt && bv.IsInt {
			return av.I == bv.I
		}
		return numFloat(av) == numFloat(bv)
	case Str:
		return av == b.(Str)
	case LightUserData:
		return av == b.(LightUserData)
	default:
		// Reference kinds (Table, Function, UserData, Thread) compare
		// by identity, matching the host VM's own pointer-equality
		// semantics for keys of these kinds.
		return a.Identity() == b.Identity()
	}
}

func numFloat(n Number) float64 {
	if n.IsInt {
		return float64(n.I)
	}
	return n.F
}

// Function describes a callable value. ShortSrc/LineDefined/
// LastLineDefined/What mirror the fields a Lua-like VM reports for a
// function via debug.getinfo, used by WATCH's function tail and
// PRINT_STACK.
type Function struct {
	Name            string
	ShortSrc        string
	LineDefined     int
	LastLineDefined int
	What            string // "Lua", "C", "main", ...
	Upvalues        []NamedValue
	Meta            *Table
}

func (f *Function) Kind() Kind        { return KindFunction }
func (f *Function) Identity() uintptr { return uintptr(unsafe.Pointer(f)) }

// UserData is an opaque host-allocated block of Size bytes, optionally
// with a metatable (the same way Lua userdata can carry one).
type UserData struct {
	Size int
	Meta *Table
}

func (u *UserData) Kind() Kind        { return KindUserData }
func (u *UserData) Identity() uintptr { return uintptr(unsafe.Pointer(u)) }

// Thread is a coroutine-like value; Status is the VM-defined status
// code rendered verbatim in WATCH's thread tail.
type Thread struct {
	Status int
}

func (t *Thread) Kind() Kind        { return KindThread }
func (t *Thread) Identity() uintptr { return uintptr(unsafe.Pointer(t)) }

// NamedValue pairs a symbol name with its value, the shape every
// locals/upvalues/globals listing deals in.
type NamedValue struct {
	Name  string
	Value Value
}

// Metatable returns v's metatable, or nil if v's kind doesn't carry
// one or none is set. Only Table and UserData carry metatables.
func Metatable(v Value) *Table {
	switch t := v.(type) {
	case *Table:
		return t.Meta
	case *UserData:
		return t.Meta
	default:
		return nil
	}
}
