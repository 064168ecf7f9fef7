package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg, "doubles")
	ctx := context.Background()

	m.RecordOperationAttempt(ctx, "SubmitSession", "SessionService")
	m.RecordOperationAttempt(ctx, "SubmitSession", "SessionService")
	m.RecordOperationSuccess(ctx, "SubmitSession", "SessionService")
	m.RecordOperationFailure(ctx, "SubmitSession", "SessionService")
	m.RecordOperationDuration(ctx, "SubmitSession", "SessionService", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.attempts.WithLabelValues("SessionService", "SubmitSession")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.success.WithLabelValues("SessionService", "SubmitSession")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failure.WithLabelValues("SessionService", "SubmitSession")))

	n, err := testutil.GatherAndCount(reg, "doubles_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPrometheusMetrics_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewPrometheusMetrics(reg, "doubles")
	second := NewPrometheusMetrics(reg, "doubles")

	first.RecordOperationAttempt(context.Background(), "Rank", "LeaderboardService")
	second.RecordOperationAttempt(context.Background(), "Rank", "LeaderboardService")

	assert.Equal(t, 2.0, testutil.ToFloat64(first.attempts.WithLabelValues("LeaderboardService", "Rank")))
}

func TestNoop(t *testing.T) {
	m := NewNoop()
	assert.NotPanics(t, func() {
		m.RecordOperationAttempt(context.Background(), "op", "svc")
		m.RecordOperationDuration(context.Background(), "op", "svc", time.Second)
	})
}
