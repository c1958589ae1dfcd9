package proto

import (
	"encoding/hex"
	"strconv"

	"github.com/glyphlang/rdb/pkg/vmvalue"
)

// FrameWriter is a typed formatter over a Conn's buffered output,
// sent as one frame on Flush. It exists so response-building code in
// pkg/debuggee reads as a sequence of "%d"/"%s"/"%x"/"%Q"/"%N"-shaped
// calls instead of ad-hoc string concatenation — a handful of typed
// send primitives rather than a single generic one.
type FrameWriter struct {
	c *Conn
}

// NewFrameWriter wraps c for building one OK response.
func NewFrameWriter(c *Conn) *FrameWriter { return &FrameWriter{c: c} }

// D writes a decimal integer on its own line — the "%d" verb.
func (w *FrameWriter) D(v int) error {
	return w.c.WriteLine(strconv.Itoa(v))
}

// Hex8 writes v as "0x" plus 8 lowercase hex digits on its own line —
// used for MEMORY's length field and anywhere else an address-shaped
// field is expected.
func (w *FrameWriter) Hex8(v uint32) error {
	return w.c.WriteLine(encodeAddr(uintptr(v)))
}

// S writes a text line verbatim — the "%s" verb.
func (w *FrameWriter) S(s string) error {
	return w.c.WriteLine(s)
}

// X writes raw bytes hex-encoded on their own line — the "%x" verb,
// used nowhere in the current command set but kept for symmetry with
// the formatter the debuggee's string encoding builds on.
func (w *FrameWriter) X(b []byte) error {
	return w.c.WriteLine(hex.EncodeToString(b))
}

// Q dumps buf verbatim, with no delimiter or trailing newline — the
// "%Q" (buf, length) verb. This is MEMORY's raw byte payload.
func (w *FrameWriter) Q(buf []byte) error {
	return w.c.WriteRaw(buf)
}

// N writes v using the runtime-chosen integer-or-float rendering of
// the number tag — the "%N" verb — without the leading 'n', for
// callers assembling a tagged value themselves.
func (w *FrameWriter) N(n vmvalue.Number) error {
	return w.c.WriteLine(encodeNumber(n))
}

// Value writes v fully tagged, as produced by Encode.
func (w *FrameWriter) Value(v vmvalue.Value) error {
	return w.c.WriteLine(Encode(v))
}

// Flush sends everything buffered since the writer (or its
// underlying Conn) was last flushed.
func (w *FrameWriter) Flush() error {
	return w.c.Flush()
}
