package breakpoints

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestYAMLRoundTrip(t *testing.T) {
	entries := []Entry{{"a.lua", 1}, {"a.lua", 3}, {"b.lua", 2}}

	var buf bytes.Buffer
	require.NoError(t, SaveYAML(&buf, entries))

	got, err := LoadYAML(&buf)
	require.NoError(t, err)
	require.Equal(t, entries, got)
}

func TestLoadYAMLRejectsInvalidEntries(t *testing.T) {
	_, err := LoadYAML(strings.NewReader("breakpoints:\n  - path: a.lua\n    line: 0\n"))
	require.Error(t, err)

	_, err = LoadYAML(strings.NewReader("breakpoints:\n  - path: \"\"\n    line: 4\n"))
	require.Error(t, err)
}

func TestLoadYAMLEmptyFile(t *testing.T) {
	got, err := LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, got)
}
