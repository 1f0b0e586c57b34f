package webhook

import (
	"errors"
	"testing"
	"time"

	"github.com/garrettladley/plaidgate/internal/storage"
	"github.com/google/go-cmp/cmp"
)

func newTestProcessor(t *testing.T, signer *testSigner, opts ...ProcessorOption) (*Processor, *Router) {
	t.Helper()

	v := NewVerifier(newStaticKeys(signer.key), WithVerifierClock(func() time.Time { return testNow }))
	r := NewRouter(nil)
	return NewProcessor(v, r, opts...), r
}

func TestProcessWebhook(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t, "kid-current")
	p, _ := newTestProcessor(t, signer)

	body := []byte(sampleBody)
	got, err := p.ProcessWebhook(t.Context(), ProcessRequest{Body: body, Verification: signer.sign(t, body, testNow)})
	if err != nil {
		t.Fatalf("ProcessWebhook() error = %v", err)
	}

	want := Outcome{Status: StatusProcessed, WebhookType: TypeTransactions, WebhookCode: CodeSyncUpdatesAvailable}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ProcessWebhook() mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessWebhookRejected(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t, "kid-current")
	p, r := newTestProcessor(t, signer)

	handler := &recordingHandler{}
	if err := r.RegisterType(TypeTransactions, handler); err != nil {
		t.Fatalf("RegisterType() error = %v", err)
	}

	body := []byte(sampleBody)
	tests := []struct {
		name       string
		header     string
		wantReason FailureReason
	}{
		{name: "missing header", header: "", wantReason: ReasonMissingSignature},
		{name: "stale", header: signer.sign(t, body, testNow.Add(-time.Hour)), wantReason: ReasonStaleAssertion},
		{name: "other body", header: signer.sign(t, []byte(`{}`), testNow), wantReason: ReasonBodyHashMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ProcessWebhook(t.Context(), ProcessRequest{Body: body, Verification: tt.header})

			authErr, ok := AsAuthorizationError(err)
			if !ok {
				t.Fatalf("ProcessWebhook() error = %v, want *AuthorizationError", err)
			}
			if authErr.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", authErr.Reason, tt.wantReason)
			}
			if got.Status != StatusRejected {
				t.Errorf("Status = %q, want %q", got.Status, StatusRejected)
			}
		})
	}

	if len(handler.calls) != 0 {
		t.Errorf("handler called %d times for rejected webhooks", len(handler.calls))
	}
}

func TestProcessWebhookMalformedEnvelope(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t, "kid-current")
	p, _ := newTestProcessor(t, signer)

	body := []byte(`{"item_id":"item-1"}`)
	_, err := p.ProcessWebhook(t.Context(), ProcessRequest{Body: body, Verification: signer.sign(t, body, testNow)})
	if !errors.Is(err, ErrMalformedEnvelope) {
		t.Fatalf("ProcessWebhook() error = %v, want ErrMalformedEnvelope", err)
	}
	if _, ok := AsAuthorizationError(err); ok {
		t.Error("malformed envelope reported as an authorization failure")
	}
}

func TestProcessWebhookSuppressesReplays(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t, "kid-current")
	p, r := newTestProcessor(t, signer, WithLedger(storage.NewMemoryDeliveryLedger(time.Hour)))

	handler := &recordingHandler{}
	if err := r.Register(TypeTransactions, CodeSyncUpdatesAvailable, handler); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	body := []byte(sampleBody)
	req := ProcessRequest{Body: body, Verification: signer.sign(t, body, testNow)}

	for i := range 3 {
		got, err := p.ProcessWebhook(t.Context(), req)
		if err != nil {
			t.Fatalf("ProcessWebhook() #%d error = %v", i, err)
		}
		if got.Status != StatusProcessed {
			t.Errorf("ProcessWebhook() #%d status = %q", i, got.Status)
		}
	}

	if len(handler.calls) != 1 {
		t.Errorf("handler calls = %d, want 1", len(handler.calls))
	}
}

func TestProcessWebhookDispatchesEachSignedSend(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t, "kid-current")
	p, r := newTestProcessor(t, signer, WithLedger(storage.NewMemoryDeliveryLedger(time.Hour)))

	handler := &recordingHandler{}
	if err := r.Register(TypeTransactions, CodeSyncUpdatesAvailable, handler); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// two events for the same item share a body but are signed separately
	body := []byte(sampleBody)
	for i, iat := range []time.Time{testNow.Add(-time.Second), testNow} {
		req := ProcessRequest{Body: body, Verification: signer.sign(t, body, iat)}
		got, err := p.ProcessWebhook(t.Context(), req)
		if err != nil {
			t.Fatalf("ProcessWebhook() #%d error = %v", i, err)
		}
		if got.Status != StatusProcessed {
			t.Errorf("ProcessWebhook() #%d status = %q", i, got.Status)
		}
	}

	if len(handler.calls) != 2 {
		t.Errorf("handler calls = %d, want 2", len(handler.calls))
	}
}

func TestProcessWebhookHandlerFailureAllowsRetry(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t, "kid-current")
	p, r := newTestProcessor(t, signer, WithLedger(storage.NewMemoryDeliveryLedger(time.Hour)))

	errDownstream := errors.New("downstream unavailable")
	handler := &recordingHandler{err: errDownstream}
	if err := r.RegisterType(TypeTransactions, handler); err != nil {
		t.Fatalf("RegisterType() error = %v", err)
	}

	body := []byte(sampleBody)
	req := ProcessRequest{Body: body, Verification: signer.sign(t, body, testNow)}

	got, err := p.ProcessWebhook(t.Context(), req)
	if !errors.Is(err, errDownstream) {
		t.Fatalf("ProcessWebhook() error = %v, want %v", err, errDownstream)
	}
	if got.Status != StatusError {
		t.Errorf("Status = %q, want %q", got.Status, StatusError)
	}

	handler.err = nil
	if _, err := p.ProcessWebhook(t.Context(), req); err != nil {
		t.Fatalf("retry ProcessWebhook() error = %v", err)
	}
	if len(handler.calls) != 2 {
		t.Errorf("handler calls = %d, want 2", len(handler.calls))
	}
}
