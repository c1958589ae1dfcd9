package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(LoggerConfig{Level: WARN, Output: &buf})
	require.NoError(t, err)

	log.Debug("dropped")
	log.Info("dropped too")
	log.Warn("kept")
	log.Error("kept too")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
	assert.Contains(t, out, "kept too")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(LoggerConfig{Level: INFO, Format: JSONFormat, Output: &buf, SessionID: "abc-123"})
	require.NoError(t, err)

	log.InfoWithFields("debuggee attached", map[string]interface{}{"addr": "127.0.0.1:2679"})

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "debuggee attached", entry.Message)
	assert.Equal(t, "abc-123", entry.SessionID)
	assert.Equal(t, "127.0.0.1:2679", entry.Fields["addr"])
}

func TestTextFormatCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(LoggerConfig{Level: DEBUG, Output: &buf, SessionID: "s1"})
	require.NoError(t, err)

	log.ErrorWithFields("detaching after I/O error", map[string]interface{}{"error": "broken pipe"})

	out := buf.String()
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "detaching after I/O error")
	assert.Contains(t, out, "session=s1")
	assert.Contains(t, out, "error=broken pipe")
}

func TestGeneratedSessionID(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(LoggerConfig{Output: &buf})
	require.NoError(t, err)
	assert.NotEmpty(t, log.SessionID())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("Warning"))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("anything else"))
}

func TestLevelString(t *testing.T) {
	for lvl, want := range map[LogLevel]string{DEBUG: "DEBUG", INFO: "INFO", WARN: "WARN", ERROR: "ERROR"} {
		assert.Equal(t, want, lvl.String())
	}
	assert.True(t, strings.HasPrefix(LogLevel(99).String(), "UNKNOWN"))
}
