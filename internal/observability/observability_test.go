package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "stocktalk-test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.NotNil(t, Tracer)
}

func TestStartSpan_RecordsError(t *testing.T) {
	ctx, finish := StartSpan(context.Background(), "PostService.Create")
	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() { finish(errors.New("boom")) })
}

func TestTrackQuery_ObservesLatency(t *testing.T) {
	before := testutil.CollectAndCount(DatabaseQueryLatency)
	TrackQuery("select", "observability_test")()
	assert.Equal(t, before+1, testutil.CollectAndCount(DatabaseQueryLatency))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(LikeEvents.WithLabelValues("like"))
	LikeEvents.WithLabelValues("like").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(LikeEvents.WithLabelValues("like")))
}
