package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("gate-a", "GET", "/summary", 200, 12*time.Millisecond)
	RecordUpstreamExchange("daemons", "127.0.0.1:9400", "summary", 24*time.Millisecond)
	RecordSummaryBytes("/summary", 128)

	if got := testutil.ToFloat64(upstreamExchanges.WithLabelValues("daemons", "127.0.0.1:9400", "summary")); got < 1 {
		t.Fatalf("expected exchange counter to be recorded, got %v", got)
	}
	if got := testutil.ToFloat64(summaryBytes.WithLabelValues("/summary")); got < 128 {
		t.Fatalf("expected summary bytes to be recorded, got %v", got)
	}
}
