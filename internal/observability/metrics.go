package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CommandsTotal counts executed commands by name and outcome
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kv_commands_total",
		Help: "The total number of commands executed",
	}, []string{"command", "status"})

	// KeyspaceHitsTotal counts reads that found their key
	KeyspaceHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kv_keyspace_hits_total",
		Help: "The total number of successful key lookups",
	})

	// KeyspaceMissesTotal counts reads of absent keys
	KeyspaceMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kv_keyspace_misses_total",
		Help: "The total number of failed key lookups",
	})

	// CommandDurationSeconds measures latency
	CommandDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kv_command_duration_seconds",
		Help:    "The latency of command execution",
		Buckets: prometheus.DefBuckets,
	}, []string{"command"})

	// ExpiredKeysTotal counts keys removed because their TTL passed
	ExpiredKeysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kv_expired_keys_total",
		Help: "The total number of keys removed on expiry",
	})

	// EvictedKeysTotal counts keys removed to respect the capacity bound
	EvictedKeysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kv_evicted_keys_total",
		Help: "The total number of keys evicted by the eviction policy",
	})

	// ConnectedClients tracks open RESP connections
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kv_connected_clients",
		Help: "The number of open client connections",
	})
)
