package interceptors

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tasklists"

// Metrics holds the store's collectors. Each instance registers against its
// own registerer so several stores can coexist in one process.
type Metrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	persistFailures   prometheus.Counter
	lists             prometheus.Gauge
	tasks             prometheus.Gauge
	undoPending       prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total number of store operations",
			},
			[]string{"op", "outcome"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Histogram of store operation durations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		persistFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_persist_failures_total",
				Help:      "Number of snapshot writes that failed",
			},
		),
		lists: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "lists",
				Help:      "Number of lists in the store",
			},
		),
		tasks: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tasks",
				Help:      "Number of tasks across all lists",
			},
		),
		undoPending: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "undo_pending",
				Help:      "1 while a deleted task can still be restored",
			},
		),
	}
}

func (m *Metrics) Interceptor() Interceptor {
	return func(
		ctx context.Context,
		info *OperationInfo,
		handler Handler,
	) (Outcome, error) {
		start := time.Now()

		outcome, err := handler(ctx)

		m.operationDuration.WithLabelValues(info.Operation).Observe(time.Since(start).Seconds())
		m.operationsTotal.WithLabelValues(info.Operation, string(outcome)).Inc()

		return outcome, err
	}
}

// PersistFailed counts a failed snapshot write
func (m *Metrics) PersistFailed() {
	m.persistFailures.Inc()
}

// ObserveState records the current store size and undo availability
func (m *Metrics) ObserveState(lists, tasks int, undoPending bool) {
	m.lists.Set(float64(lists))
	m.tasks.Set(float64(tasks))
	if undoPending {
		m.undoPending.Set(1)
	} else {
		m.undoPending.Set(0)
	}
}
