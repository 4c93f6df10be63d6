package observability

import (
	"testing"
	"time"

	"github.com/danmuck/httpebble/internal/logging"
	"github.com/danmuck/httpebble/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("GET", "/health", 200, 12*time.Millisecond)
	RecordUpstream(200, 24*time.Millisecond, true)
	RecordUpstream(0, time.Millisecond, false)

	before := testutil.ToFloat64(dispatchCommands.WithLabelValues("COOKIE_LOAD", "ok"))
	RecordDispatch("COOKIE_LOAD", "ok")
	after := testutil.ToFloat64(dispatchCommands.WithLabelValues("COOKIE_LOAD", "ok"))
	if after != before+1 {
		t.Fatalf("dispatch counter not incremented: before=%v after=%v", before, after)
	}

	logging.Logf("observability/metrics: registration idempotent and recording paths executed")
}
