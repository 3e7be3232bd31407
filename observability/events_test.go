package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordEventNormalisesType(t *testing.T) {
	counter := Events().Emitted().WithLabelValues("remit.settled")
	before := testutil.ToFloat64(counter)
	Events().RecordEvent("  REMIT.Settled ")
	Events().RecordEvent("remit.settled")
	if got := testutil.ToFloat64(counter); got != before+2 {
		t.Fatalf("expected counter to advance by 2, got %v -> %v", before, got)
	}
}

func TestRecordEventNilSafe(t *testing.T) {
	var m *eventMetrics
	m.RecordEvent("remit.settled")
}
