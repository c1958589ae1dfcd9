package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitDisabledYieldsUsableNoopProvider(t *testing.T) {
	tp, err := Init(Config{Enabled: false})
	require.NoError(t, err)
	require.NoError(t, tp.Shutdown(context.Background()))
}

func TestInitEnabledBuildsStdoutProvider(t *testing.T) {
	tp, err := Init(Config{ServiceName: "rdb-controller-test", SamplingRate: 1.0, Enabled: true})
	require.NoError(t, err)
	defer tp.Shutdown(context.Background())

	ctx, span := StartCommandSpan(context.Background(), "ll", "step")
	require.NotNil(t, ctx)
	EndWithError(span, nil)
}

func TestEndWithErrorRecordsFailure(t *testing.T) {
	tp, err := Init(Config{ServiceName: "rdb-controller-test", SamplingRate: 1.0, Enabled: true})
	require.NoError(t, err)
	defer tp.Shutdown(context.Background())

	_, span := StartCommandSpan(context.Background(), "w", "run")
	EndWithError(span, errors.New("boom"))
}
