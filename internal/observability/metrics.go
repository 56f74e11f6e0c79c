// Package observability provides metrics and tracing.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipebox_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recipebox_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// RatingsSubmitted counts accepted ratings, split by first rating vs re-rate.
	RatingsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipebox_ratings_submitted_total",
		Help: "Total number of ratings submitted",
	}, []string{"first"})

	// SaveToggles counts save toggles by resulting state.
	SaveToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipebox_save_toggles_total",
		Help: "Total number of save toggles by resulting state",
	}, []string{"saved"})

	// FeedQueries counts recipe listings by sort strategy.
	FeedQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipebox_feed_queries_total",
		Help: "Total number of recipe feed queries by sort",
	}, []string{"sort"})

	// Notifications counts emitted notifications by type and outcome
	// (stored, skipped_self, dropped).
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipebox_notifications_total",
		Help: "Total number of notification emissions by type and outcome",
	}, []string{"type", "outcome"})

	// SearchIndexErrors counts failed search index maintenance operations.
	SearchIndexErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipebox_search_index_errors_total",
		Help: "Total number of failed search index operations",
	}, []string{"operation"})
)

// RecordRating counts one accepted rating.
func RecordRating(first bool) {
	RatingsSubmitted.WithLabelValues(strconv.FormatBool(first)).Inc()
}

// RecordSaveToggle counts one save toggle.
func RecordSaveToggle(saved bool) {
	SaveToggles.WithLabelValues(strconv.FormatBool(saved)).Inc()
}

const startedAtKey = "observability:started_at"

// InstrumentGorm records DatabaseQueryLatency for every create, query,
// update, delete and raw statement executed through db.
func InstrumentGorm(db *gorm.DB) error {
	cb := db.Callback()
	type hook struct {
		operation string
		before    func(name string, fn func(*gorm.DB)) error
		after     func(name string, fn func(*gorm.DB)) error
	}
	hooks := []hook{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		operation := h.operation
		if err := h.before("observability:before_"+operation, func(tx *gorm.DB) {
			tx.InstanceSet(startedAtKey, time.Now())
		}); err != nil {
			return err
		}
		if err := h.after("observability:after_"+operation, func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startedAtKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}); err != nil {
			return err
		}
	}
	return nil
}

// WebSocketBackpressureDrops counts messages dropped because a client's
// send buffer was full or already closed.
var WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "recipebox_websocket_backpressure_drops_total",
	Help: "Total number of websocket messages dropped by hub and reason",
}, []string{"hub", "reason"})

// WebSocketConnections tracks open websocket connections.
var WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "recipebox_websocket_connections",
	Help: "Number of open websocket connections",
})
