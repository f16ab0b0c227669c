package service

import (
	"testing"

	"typed-kv-service/internal/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// Prometheus globals are shared across tests, so every check compares deltas.

func TestMetrics_HitsAndMisses(t *testing.T) {
	svc, _ := newTestService()
	exec(t, svc, "SET", "hit_key", "value")

	hits := testutil.ToFloat64(observability.KeyspaceHitsTotal)
	exec(t, svc, "GET", "hit_key")
	assert.Equal(t, hits+1, testutil.ToFloat64(observability.KeyspaceHitsTotal))

	misses := testutil.ToFloat64(observability.KeyspaceMissesTotal)
	exec(t, svc, "GET", "miss_key")
	assert.Equal(t, misses+1, testutil.ToFloat64(observability.KeyspaceMissesTotal))

	// writes never count as lookups
	exec(t, svc, "SET", "other", "value")
	assert.Equal(t, hits+1, testutil.ToFloat64(observability.KeyspaceHitsTotal))
}

func TestMetrics_CommandStatus(t *testing.T) {
	svc, _ := newTestService()

	ok := observability.CommandsTotal.WithLabelValues("set", "success")
	failed := observability.CommandsTotal.WithLabelValues("set", "error")
	unknown := observability.CommandsTotal.WithLabelValues("unknown", "error")
	before := []float64{testutil.ToFloat64(ok), testutil.ToFloat64(failed), testutil.ToFloat64(unknown)}

	exec(t, svc, "SET", "k", "v")
	execErr(t, svc, "SET", "k")
	execErr(t, svc, "SET", "k", "v", "NX", "XX")
	execErr(t, svc, "NOPE")

	assert.Equal(t, before[0]+1, testutil.ToFloat64(ok))
	assert.Equal(t, before[1]+2, testutil.ToFloat64(failed))
	assert.Equal(t, before[2]+1, testutil.ToFloat64(unknown))
}

func TestMetrics_CommandDuration(t *testing.T) {
	svc, _ := newTestService()

	before := testutil.CollectAndCount(observability.CommandDurationSeconds)
	exec(t, svc, "LPUSH", "durations", "a")
	assert.GreaterOrEqual(t, testutil.CollectAndCount(observability.CommandDurationSeconds), before)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(observability.CommandDurationSeconds), 1)
}
