package sessionlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordAndReplayRoundTrips(t *testing.T) {
	ctx := context.Background()
	log, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer log.Close()

	t0 := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	require.NoError(t, log.RecordBreak(ctx, "sess-1", "foo.glyph", 7, t0))
	require.NoError(t, log.RecordCommand(ctx, "sess-1", "ll 1", "x = 42", t0.Add(time.Second)))

	breaks, commands, err := log.Replay(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, breaks, 1)
	require.Equal(t, "foo.glyph", breaks[0].Path)
	require.Equal(t, 7, breaks[0].Line)

	require.Len(t, commands, 1)
	require.Equal(t, "ll 1", commands[0].Command)
	require.Equal(t, "x = 42", commands[0].ReplyHead)
}

func TestReplayIsolatesBySession(t *testing.T) {
	ctx := context.Background()
	log, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer log.Close()

	now := time.Now()
	require.NoError(t, log.RecordBreak(ctx, "sess-a", "a.glyph", 1, now))
	require.NoError(t, log.RecordBreak(ctx, "sess-b", "b.glyph", 2, now))

	breaks, _, err := log.Replay(ctx, "sess-a")
	require.NoError(t, err)
	require.Len(t, breaks, 1)
	require.Equal(t, "a.glyph", breaks[0].Path)
}

func TestReplayUnknownSessionIsEmpty(t *testing.T) {
	ctx := context.Background()
	log, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer log.Close()

	breaks, commands, err := log.Replay(ctx, "nope")
	require.NoError(t, err)
	require.Empty(t, breaks)
	require.Empty(t, commands)
}
