package maelstrom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "maelstrom_node"

// Metrics holds the Prometheus collectors for the dispatch path.
type Metrics struct {
	// received counts input lines by outcome: accepted, malformed, invalid,
	// unknown_type, unroutable, rejected or reply.
	received *prometheus.CounterVec
	// handled counts handler invocations by message type and status.
	handled         *prometheus.CounterVec
	handlerDuration *prometheus.HistogramVec
	responses       prometheus.Counter
	queueDepth      prometheus.Gauge
	workers         prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		received: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "messages_received_total",
				Help:      "Total number of input lines, by outcome and origin.",
			},
			[]string{"outcome", "origin"},
		),
		handled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "handler_invocations_total",
				Help:      "Total number of handler invocations, by message type and status.",
			},
			[]string{"type", "status"},
		),
		handlerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "handler_duration_seconds",
				Help:      "Time spent in message handlers.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"type"},
		),
		responses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "messages_sent_total",
			Help:      "Total number of messages written to output.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "task_queue_depth",
			Help:      "Number of accepted tasks waiting for a worker.",
		}),
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "workers",
			Help:      "Number of running worker goroutines.",
		}),
	}
	reg.MustRegister(m.received, m.handled, m.handlerDuration, m.responses, m.queueDepth, m.workers)
	return m
}

func (m *Metrics) observeReceived(outcome, origin string) {
	m.received.WithLabelValues(outcome, origin).Inc()
}

func (m *Metrics) observeHandled(typ MessageType, err error, d time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.handled.WithLabelValues(typ.String(), status).Inc()
	m.handlerDuration.WithLabelValues(typ.String()).Observe(d.Seconds())
}
