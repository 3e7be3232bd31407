package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRemitMetricsRecordOutcomes(t *testing.T) {
	m := Remit()
	if Remit() != m {
		t.Fatalf("registry must be a singleton")
	}
	ok := m.InvocationCounter().WithLabelValues("metrics_test_op", "ok")
	before := testutil.ToFloat64(ok)
	m.ObserveInvocation("metrics_test_op", "ok", 5*time.Millisecond)
	if got := testutil.ToFloat64(ok); got != before+1 {
		t.Fatalf("invocation counter = %v, want %v", got, before+1)
	}

	rejected := m.RejectionCounter().WithLabelValues("unknown", "RateLimitExceeded")
	before = testutil.ToFloat64(rejected)
	m.ObserveRejection("  ", "RateLimitExceeded")
	if got := testutil.ToFloat64(rejected); got != before+1 {
		t.Fatalf("rejection counter = %v, want %v", got, before+1)
	}

	m.SetAccumulatedFees(5000)
	if got := testutil.ToFloat64(m.AccumulatedFeesGauge()); got != 5000 {
		t.Fatalf("fee gauge = %v, want 5000", got)
	}
}

func TestNilRemitMetricsAreSafe(t *testing.T) {
	var m *RemitMetrics
	m.ObserveInvocation("op", "ok", time.Second)
	m.ObserveRejection("op", "code")
	m.ObserveCommit(3)
	m.SetAccumulatedFees(1)
}
