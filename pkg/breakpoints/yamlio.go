package breakpoints

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// yamlFile is the on-disk shape of an exported breakpoint set — a
// plain list a team can check into source control and diff.
type yamlFile struct {
	Breakpoints []yamlEntry `yaml:"breakpoints"`
}

type yamlEntry struct {
	Path string `yaml:"path"`
	Line int    `yaml:"line"`
}

// SaveYAML writes entries to w in the exported YAML shape, preserving
// the (path, line) order the caller passes (List order, for an export
// of a live index).
func SaveYAML(w io.Writer, entries []Entry) error {
	f := yamlFile{Breakpoints: make([]yamlEntry, len(entries))}
	for i, e := range entries {
		f.Breakpoints[i] = yamlEntry{Path: e.Path, Line: e.Line}
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("breakpoints: marshaling export: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// LoadYAML parses an exported breakpoint set. Entries with an empty
// path or non-positive line are rejected rather than skipped — a
// malformed file should fail loudly, not half-import.
func LoadYAML(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("breakpoints: parsing import: %w", err)
	}
	out := make([]Entry, len(f.Breakpoints))
	for i, e := range f.Breakpoints {
		if e.Path == "" || e.Line < 1 {
			return nil, fmt.Errorf("breakpoints: invalid entry %d: path %q line %d", i, e.Path, e.Line)
		}
		out[i] = Entry{Path: e.Path, Line: e.Line}
	}
	return out, nil
}
