package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordCommandIncrementsByKind(t *testing.T) {
	m := New(DefaultConfig())
	m.RecordCommand("ll")
	m.RecordCommand("ll")
	m.RecordCommand("w")

	require.Equal(t, float64(2), testutil.ToFloat64(m.commandsTotal.WithLabelValues("ll")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.commandsTotal.WithLabelValues("w")))
}

func TestSessionGaugeTracksAttachAndDetach(t *testing.T) {
	m := New(DefaultConfig())
	m.SessionAttached()
	m.SessionAttached()
	m.SessionDetached()

	require.Equal(t, float64(1), testutil.ToFloat64(m.activeSessions))
}

func TestRecordBreakAndWatchAndDetach(t *testing.T) {
	m := New(DefaultConfig())
	m.RecordBreak()
	m.RecordBreak()
	m.RecordWatch()
	m.RecordDetach()

	require.Equal(t, float64(2), testutil.ToFloat64(m.breaksTotal))
	require.Equal(t, float64(1), testutil.ToFloat64(m.watchesTotal))
	require.Equal(t, float64(1), testutil.ToFloat64(m.detachesTotal))
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	m := New(DefaultConfig())
	m.RecordStep("over")
	require.NotNil(t, m.Handler())
}
