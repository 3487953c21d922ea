package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты операций движка меню.
const (
	ResultSuccess    = "success"
	ResultValidation = "validation"
	ResultNotFound   = "not_found"
	ResultConflict   = "conflict"
	ResultError      = "error"
)

// MenuMetrics содержит метрики операций с меню и кэша деревьев.
// Все методы безопасны для nil-получателя.
type MenuMetrics struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec

	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheInvalidations prometheus.Counter
}

// NewMenuMetrics регистрирует метрики в prometheus.DefaultRegisterer.
func NewMenuMetrics() *MenuMetrics {
	return NewMenuMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewMenuMetricsWithRegisterer регистрирует метрики в указанном реестре.
func NewMenuMetricsWithRegisterer(registerer prometheus.Registerer) *MenuMetrics {
	registerer = orDefault(registerer)

	return &MenuMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "menu_operations_total",
			Help: "Total number of menu engine operations grouped by operation and result.",
		}, []string{"operation", "result"}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "menu_operation_duration_seconds",
			Help:    "Duration of menu engine operations in seconds.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"operation"}),
		cacheHits: registerCounter(registerer, prometheus.CounterOpts{
			Name: "menu_tree_cache_hits_total",
			Help: "Total number of menu tree cache hits.",
		}),
		cacheMisses: registerCounter(registerer, prometheus.CounterOpts{
			Name: "menu_tree_cache_misses_total",
			Help: "Total number of menu tree cache misses.",
		}),
		cacheInvalidations: registerCounter(registerer, prometheus.CounterOpts{
			Name: "menu_tree_cache_invalidations_total",
			Help: "Total number of full menu tree cache invalidations.",
		}),
	}
}

// RecordOperation учитывает завершённую операцию и её длительность.
func (m *MenuMetrics) RecordOperation(operation, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, result).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// CacheHit увеличивает счётчик попаданий в кэш.
func (m *MenuMetrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// CacheMiss увеличивает счётчик промахов кэша.
func (m *MenuMetrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// CacheInvalidated увеличивает счётчик полных инвалидаций.
func (m *MenuMetrics) CacheInvalidated() {
	if m == nil {
		return
	}
	m.cacheInvalidations.Inc()
}
