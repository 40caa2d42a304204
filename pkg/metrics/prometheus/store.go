// Package prometheus provides a Prometheus-backed implementation of
// metrics.StoreMetrics, following the teacher's promauto-registered metrics
// constructors (pkg/metrics/prometheus).
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nt2go/ntclient/pkg/metrics"
)

// storeMetrics is the Prometheus implementation of metrics.StoreMetrics.
type storeMetrics struct {
	entriesInstalled *prometheus.CounterVec
	queueDepth       prometheus.Gauge
	dispatchErrors   *prometheus.CounterVec
	keepAlivesSent   prometheus.Counter
	tickDuration     prometheus.Histogram
}

// NewPrometheusMetrics registers and returns a metrics.StoreMetrics backed
// by reg. Pass nil to disable metrics at the call site instead of calling
// this constructor.
func NewPrometheusMetrics(reg *prometheus.Registry) metrics.StoreMetrics {
	return &storeMetrics{
		entriesInstalled: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "networktables_entries_installed_total",
				Help: "Total number of entries installed into the store, by kind",
			},
			[]string{"kind"}, // "assignment", "update"
		),
		queueDepth: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "networktables_send_queue_depth",
				Help: "Length of the send queue immediately after the most recent enqueue",
			},
		),
		dispatchErrors: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "networktables_dispatch_errors_total",
				Help: "Total number of dropped or fatal conditions, by error kind",
			},
			[]string{"kind"},
		),
		keepAlivesSent: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "networktables_keep_alives_sent_total",
				Help: "Total number of keep-alive messages emitted by the send loop",
			},
		),
		tickDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "networktables_send_tick_duration_seconds",
				Help: "Duration of one send-loop tick, from queue drain through the last write",
				Buckets: []float64{
					0.0001, // 100us
					0.0005, // 500us
					0.001,  // 1ms
					0.005,  // 5ms
					0.01,   // 10ms
					0.02,   // 20ms, the tick period itself
					0.05,   // 50ms
				},
			},
		),
	}
}

func (m *storeMetrics) EntriesInstalled(kind string) {
	if m == nil {
		return
	}
	m.entriesInstalled.WithLabelValues(kind).Inc()
}

func (m *storeMetrics) QueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *storeMetrics) DispatchError(kind string) {
	if m == nil {
		return
	}
	m.dispatchErrors.WithLabelValues(kind).Inc()
}

func (m *storeMetrics) KeepAliveSent() {
	if m == nil {
		return
	}
	m.keepAlivesSent.Inc()
}

func (m *storeMetrics) TickDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(d.Seconds())
}
