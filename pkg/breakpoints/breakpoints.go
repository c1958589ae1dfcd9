// Package breakpoints implements the debugger's two-level breakpoint
// index: canonical path → set of line numbers, consulted on every
// line event under RUN/OVER and kept free of empty entries.
package breakpoints

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// Canonicalize resolves path to an absolute path and, on platforms
// whose common filesystems are case-insensitive, lowercases it, so
// two different spellings of the same file compare equal as map
// keys. Go has no portable "is this volume case-insensitive" query,
// so the fold is decided by GOOS rather than by probing the
// filesystem. An inaccessible path is an error: a breakpoint on a
// file that doesn't exist could never be hit, and sb/db must refuse
// it rather than silently index it.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)
	if _, err := os.Stat(abs); err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		abs = strings.ToLower(abs)
	}
	return abs, nil
}

// Index is the debuggee's breakpoint table. Not safe for concurrent
// use — the debuggee is single-threaded with respect to the VM, so
// no locking is needed.
type Index struct {
	byPath map[string]map[int]struct{}
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{byPath: make(map[string]map[int]struct{})}
}

// Set inserts a breakpoint at (canonicalPath, line). canonicalPath
// must already be canonicalized by the caller (Canonicalize).
func (idx *Index) Set(canonicalPath string, line int) {
	lines, ok := idx.byPath[canonicalPath]
	if !ok {
		lines = make(map[int]struct{})
		idx.byPath[canonicalPath] = lines
	}
	lines[line] = struct{}{}
}

// Delete removes a breakpoint. If it was the last line for that path,
// the path entry is pruned entirely — a path never maps to an empty
// set.
func (idx *Index) Delete(canonicalPath string, line int) {
	lines, ok := idx.byPath[canonicalPath]
	if !ok {
		return
	}
	delete(lines, line)
	if len(lines) == 0 {
		delete(idx.byPath, canonicalPath)
	}
}

// Has reports whether (canonicalPath, line) is a breakpoint. This is
// the hot-path lookup, consulted on every line event under RUN/OVER:
// one map lookup (miss in the common case) plus one set membership
// check.
func (idx *Index) Has(canonicalPath string, line int) bool {
	lines, ok := idx.byPath[canonicalPath]
	if !ok {
		return false
	}
	_, ok = lines[line]
	return ok
}

// Empty reports whether the index holds no breakpoints at all — used
// by the RUN command to decide whether the line hook can be disabled
// entirely.
func (idx *Index) Empty() bool {
	return len(idx.byPath) == 0
}

// Entry is one (path, line) pair as emitted by List, in LIST_BREAKPOINTS
// order.
type Entry struct {
	Path string
	Line int
}

// List returns every breakpoint sorted lexicographically by path and
// ascending by line within each path — the exact order
// LIST_BREAKPOINTS emits.
func (idx *Index) List() []Entry {
	paths := make([]string, 0, len(idx.byPath))
	for p := range idx.byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]Entry, 0)
	for _, p := range paths {
		lines := make([]int, 0, len(idx.byPath[p]))
		for l := range idx.byPath[p] {
			lines = append(lines, l)
		}
		sort.Ints(lines)
		for _, l := range lines {
			out = append(out, Entry{Path: p, Line: l})
		}
	}
	return out
}
