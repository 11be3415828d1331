package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type eventMetrics struct {
	transfers *prometheus.CounterVec
	published *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking structured chain events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "gainjar",
				Subsystem: "events",
				Name:      "transfers_total",
				Help:      "Count of bank transfers segmented by token.",
			}, []string{"token"}),
			published: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "gainjar",
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Count of committed events segmented by type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(eventRegistry.transfers, eventRegistry.published)
	})
	return eventRegistry
}

// RecordTransfer increments the transfer counter for the supplied token.
func (m *eventMetrics) RecordTransfer(token string) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(labelToken(token)).Inc()
}

// RecordPublished counts a committed event.
func (m *eventMetrics) RecordPublished(eventType string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.published.WithLabelValues(eventType).Inc()
}
