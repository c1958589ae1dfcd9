package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEntryFromFieldsParsesWellFormedHash(t *testing.T) {
	e, err := entryFromFields("worker-1", map[string]string{
		"host":      "10.0.0.5",
		"port":      "2679",
		"last_seen": "2026-07-31T12:00:00Z",
	})
	require.NoError(t, err)
	require.Equal(t, "worker-1", e.Label)
	require.Equal(t, "10.0.0.5", e.Host)
	require.Equal(t, 2679, e.Port)
	require.True(t, e.LastSeen.Equal(time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)))
}

func TestEntryFromFieldsRejectsMalformedPort(t *testing.T) {
	_, err := entryFromFields("worker-1", map[string]string{
		"host":      "10.0.0.5",
		"port":      "not-a-port",
		"last_seen": "2026-07-31T12:00:00Z",
	})
	require.Error(t, err)
}

func TestEntryFromFieldsRejectsMalformedTimestamp(t *testing.T) {
	_, err := entryFromFields("worker-1", map[string]string{
		"host":      "10.0.0.5",
		"port":      "2679",
		"last_seen": "not-a-time",
	})
	require.Error(t, err)
}

func TestNewBuildsAClosableClient(t *testing.T) {
	r := New("127.0.0.1:6379", 0)
	require.NoError(t, r.Close())
}
