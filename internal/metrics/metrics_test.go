package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWebhookCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewWebhook(reg)

	m.ObserveOutcome("TRANSACTIONS", "SYNC_UPDATES_AVAILABLE", "processed")
	m.ObserveOutcome("TRANSACTIONS", "SYNC_UPDATES_AVAILABLE", "processed")
	m.ObserveRejection("BodyHashMismatch")
	m.ObserveKeyCache(true)
	m.ObserveKeyCache(false)
	m.ObserveKeyFetch(errors.New("timeout"))
	m.ObserveDuplicate()

	if got := testutil.ToFloat64(m.received.WithLabelValues("TRANSACTIONS", "SYNC_UPDATES_AVAILABLE", "processed")); got != 2 {
		t.Errorf("processed count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.rejected.WithLabelValues("BodyHashMismatch")); got != 1 {
		t.Errorf("rejected count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.keyFetches.WithLabelValues("error")); got != 1 {
		t.Errorf("key fetch errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.duplicates); got != 1 {
		t.Errorf("duplicates = %v, want 1", got)
	}
}

func TestNilWebhookIsNoop(t *testing.T) {
	t.Parallel()

	var m *Webhook
	m.ObserveOutcome("ITEM", "ERROR", "processed")
	m.ObserveRejection("MissingSignature")
	m.ObserveKeyCache(true)
	m.ObserveKeyFetch(nil)
	m.ObserveDuplicate()
	m.ObserveRateLimited()
	m.ObserveDispatch("ITEM", 0.1)
}

func TestHandler(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewWebhook(reg)
	m.ObserveRejection("StaleAssertion")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `plaidgate_webhook_verification_failures_total{reason="StaleAssertion"} 1`) {
		t.Errorf("metrics output missing rejection counter:\n%s", body)
	}
}
