package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestModuleMetricsObserve(t *testing.T) {
	m := ModuleMetrics()
	before := testutil.ToFloat64(m.requests.WithLabelValues("payroll", "payroll_balance", "error"))
	m.Observe("payroll", "payroll_balance", -32042, 5*time.Millisecond)
	after := testutil.ToFloat64(m.requests.WithLabelValues("payroll", "payroll_balance", "error"))
	require.Equal(t, before+1, after)
	require.Equal(t, float64(1), testutil.ToFloat64(m.errors.WithLabelValues("payroll", "payroll_balance", "-32042")))
}

func TestPayrollMetricsDefaults(t *testing.T) {
	m := Payroll()
	m.RecordOperation("", "")
	require.Equal(t, float64(1), testutil.ToFloat64(m.operations.WithLabelValues("unknown", "success")))
	m.RecordPayout(" ")
	require.Equal(t, float64(1), testutil.ToFloat64(m.payouts.WithLabelValues("unknown")))

	var nilMetrics *payrollMetrics
	require.NotPanics(t, func() { nilMetrics.RecordOperation("deposit", "success") })
}
