package observability

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

type payrollMetrics struct {
	operations *prometheus.CounterVec
	payouts    *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	payrollMetricsOnce sync.Once
	payrollRegistry    *payrollMetrics
)

// ModuleMetrics returns the lazily-initialised registry used to record
// JSON-RPC activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "gainjar",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by module and method.",
			}, []string{"module", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "gainjar",
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "Total JSON-RPC errors segmented by module, method, and error code.",
			}, []string{"module", "method", "code"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "gainjar",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "gainjar",
				Subsystem: "rpc",
				Name:      "throttles_total",
				Help:      "Count of requests rejected due to throttling policies.",
			}, []string{"module", "reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of a JSON-RPC call. code is the JSON-RPC error
// code, or zero on success.
func (m *moduleMetrics) Observe(module, method string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if code != 0 {
		outcome = "error"
		m.errors.WithLabelValues(module, method, fmt.Sprintf("%d", code)).Inc()
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter for the supplied module and
// reason. Reasons should be stable strings such as "rate_limit".
func (m *moduleMetrics) RecordThrottle(module, reason string) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(module, reason).Inc()
}

// Payroll returns the registry tracking payroll operations and payouts.
func Payroll() *payrollMetrics {
	payrollMetricsOnce.Do(func() {
		payrollRegistry = &payrollMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "gainjar",
				Subsystem: "payroll",
				Name:      "operations_total",
				Help:      "Payroll operations segmented by operation and outcome.",
			}, []string{"op", "outcome"}),
			payouts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "gainjar",
				Subsystem: "payroll",
				Name:      "payouts_total",
				Help:      "Executed salary payments segmented by token.",
			}, []string{"token"}),
		}
		prometheus.MustRegister(payrollRegistry.operations, payrollRegistry.payouts)
	})
	return payrollRegistry
}

// RecordOperation counts one applied operation. outcome is "success" or a
// short error label.
func (m *payrollMetrics) RecordOperation(op, outcome string) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	if outcome == "" {
		outcome = "success"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

// RecordPayout counts one executed salary payment.
func (m *payrollMetrics) RecordPayout(token string) {
	if m == nil {
		return
	}
	m.payouts.WithLabelValues(labelToken(token)).Inc()
}

func labelToken(token string) string {
	normalized := strings.TrimSpace(token)
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
