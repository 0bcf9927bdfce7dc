package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestObservability_RecordsInstruments(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	obs := newWithProvider(provider, "event-notifications-test")

	ctx := context.Background()
	obs.RecordRequest(ctx, "/api/v1/notifications/history", 200, 12*time.Millisecond)
	obs.RecordJobProcessed(ctx, "dispatch-notification-event", "completed")
	obs.RecordJobDuration(ctx, "dispatch-notification-event", 30*time.Millisecond, "completed")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := map[string]bool{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		names[m.Name] = true
	}
	assert.True(t, names["http.server.requests"])
	assert.True(t, names["http.server.duration"])
	assert.True(t, names["jobs.processed"])
	assert.True(t, names["jobs.duration"])

	require.NoError(t, obs.Shutdown(ctx))
}

func TestObservability_ZeroValueIsSafe(t *testing.T) {
	var obs Observability
	obs.RecordRequest(context.Background(), "/", 200, time.Millisecond)
	obs.RecordJobProcessed(context.Background(), "t", "failed")
	assert.NoError(t, obs.Shutdown(context.Background()))
}
