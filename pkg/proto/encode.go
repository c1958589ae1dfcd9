package proto

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/glyphlang/rdb/pkg/vmvalue"
)

// MaxStrLen is PROT_MAX_STR_LEN: the longest run of a string's raw
// bytes the wire encoding carries verbatim. Longer strings are
// truncated; rawLen still reports the true length.
const MaxStrLen = 512

// Encode renders a single value as its tagged one-line wire payload,
// without the trailing newline — callers append it via Conn.WriteLine
// so a full name/value pair is written as one buffered unit.
func Encode(v vmvalue.Value) string {
	switch val := v.(type) {
	case vmvalue.Nil:
		return "l"
	case vmvalue.Bool:
		if val {
			return "b1"
		}
		return "b0"
	case vmvalue.Number:
		return "n" + encodeNumber(val)
	case vmvalue.Str:
		return "s" + encodeString(val)
	case vmvalue.LightUserData:
		return "U" + encodeAddr(uintptr(val))
	case *vmvalue.Table:
		return "t" + encodeAddr(val.Identity())
	case *vmvalue.Function:
		return "f" + encodeAddr(val.Identity())
	case *vmvalue.UserData:
		return "u" + encodeAddr(val.Identity())
	case *vmvalue.Thread:
		return "d" + encodeAddr(val.Identity())
	default:
		return "l"
	}
}

func encodeNumber(n vmvalue.Number) string {
	if n.IsInt {
		return strconv.FormatInt(n.I, 10)
	}
	return strconv.FormatFloat(n.F, 'g', -1, 64)
}

// encodeAddr truncates identity to 32 bits — the wire width is fixed
// at 8 hex digits regardless of the host's native pointer width.
func encodeAddr(id uintptr) string {
	return fmt.Sprintf("0x%08x", uint32(id))
}

func encodeString(s vmvalue.Str) string {
	raw := []byte(s)
	rawLen := len(raw)
	truncLen := rawLen
	if truncLen > MaxStrLen {
		truncLen = MaxStrLen
	}
	addr := encodeAddr(s.Identity())
	return fmt.Sprintf("%s:%d:%d:%s", addr, rawLen, truncLen, hex.EncodeToString(raw[:truncLen]))
}

// Rendered is a parsed wire value as the controller sees it: it never
// reconstructs a vmvalue.Value (the controller holds no VM of its
// own), just the tag and decoded payload needed to print and to chain
// identity-based field-path lookups.
type Rendered struct {
	Kind        vmvalue.Kind
	Bool        bool
	Number      string // decimal text, rendered verbatim
	Addr        uintptr
	StrRawLen   int
	StrTruncLen int
	StrBytes    []byte // truncLen raw bytes, already hex-decoded
}

// Decode parses one tagged value line (without its trailing newline)
// as rendered by Encode, for the controller's display and
// identity-chaining use.
func Decode(line string) (Rendered, error) {
	if line == "" {
		return Rendered{}, fmt.Errorf("proto: empty value line")
	}
	tag, rest := line[0], line[1:]
	switch tag {
	case 'l':
		return Rendered{Kind: vmvalue.KindNil}, nil
	case 'b':
		switch rest {
		case "0":
			return Rendered{Kind: vmvalue.KindBoolean, Bool: false}, nil
		case "1":
			return Rendered{Kind: vmvalue.KindBoolean, Bool: true}, nil
		default:
			return Rendered{}, fmt.Errorf("proto: invalid boolean payload %q", rest)
		}
	case 'n':
		return Rendered{Kind: vmvalue.KindNumber, Number: rest}, nil
	case 't', 'f', 'u', 'd', 'U':
		addr, err := decodeAddr(rest)
		if err != nil {
			return Rendered{}, err
		}
		kind := vmvalue.KindLightUserData
		switch tag {
		case 't':
			kind = vmvalue.KindTable
		case 'f':
			kind = vmvalue.KindFunction
		case 'u':
			kind = vmvalue.KindUserData
		case 'd':
			kind = vmvalue.KindThread
		}
		return Rendered{Kind: kind, Addr: addr}, nil
	case 's':
		return decodeString(rest)
	default:
		return Rendered{}, fmt.Errorf("proto: unknown value tag %q", string(tag))
	}
}

func decodeAddr(s string) (uintptr, error) {
	s = strings.TrimPrefix(s, "0x")
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("proto: invalid address %q: %w", s, err)
	}
	return uintptr(v), nil
}

func decodeString(rest string) (Rendered, error) {
	parts := strings.SplitN(rest, ":", 4)
	if len(parts) != 4 {
		return Rendered{}, fmt.Errorf("proto: malformed string payload %q", rest)
	}
	addr, err := decodeAddr(parts[0])
	if err != nil {
		return Rendered{}, err
	}
	rawLen, err := strconv.Atoi(parts[1])
	if err != nil {
		return Rendered{}, fmt.Errorf("proto: invalid rawLen in %q: %w", rest, err)
	}
	truncLen, err := strconv.Atoi(parts[2])
	if err != nil {
		return Rendered{}, fmt.Errorf("proto: invalid truncLen in %q: %w", rest, err)
	}
	bs, err := hex.DecodeString(parts[3])
	if err != nil {
		return Rendered{}, fmt.Errorf("proto: invalid hex bytes in %q: %w", rest, err)
	}
	if len(bs) != truncLen {
		return Rendered{}, fmt.Errorf("proto: truncLen %d does not match decoded byte count %d", truncLen, len(bs))
	}
	return Rendered{
		Kind:        vmvalue.KindString,
		Addr:        addr,
		StrRawLen:   rawLen,
		StrTruncLen: truncLen,
		StrBytes:    bs,
	}, nil
}
