package storage

import (
	"errors"
	"testing"
	"time"
)

func TestMemoryDeliveryLedger(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ledger := NewMemoryDeliveryLedger(time.Hour)
	ledger.now = func() time.Time { return now }

	d := Delivery{ID: "1", AssertionSHA256: "abc", BodySHA256: "body", WebhookType: "ITEM", WebhookCode: "ERROR"}

	if err := ledger.Record(t.Context(), d); err != nil {
		t.Fatalf("first Record() error = %v", err)
	}
	if err := ledger.Record(t.Context(), d); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second Record() error = %v, want ErrDuplicate", err)
	}

	// same body, separately signed send
	other := Delivery{ID: "2", AssertionSHA256: "def", BodySHA256: "body", WebhookType: "ITEM", WebhookCode: "ERROR"}
	if err := ledger.Record(t.Context(), other); err != nil {
		t.Fatalf("Record() same body with a different assertion error = %v", err)
	}

	now = now.Add(2 * time.Hour)
	if err := ledger.Record(t.Context(), d); err != nil {
		t.Errorf("Record() after retention error = %v, want nil", err)
	}
}

func TestMemoryDeliveryLedgerForget(t *testing.T) {
	t.Parallel()

	ledger := NewMemoryDeliveryLedger(time.Hour)
	d := Delivery{ID: "1", AssertionSHA256: "abc", BodySHA256: "body", WebhookType: "TRANSACTIONS", WebhookCode: "DEFAULT_UPDATE"}

	if err := ledger.Record(t.Context(), d); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := ledger.Forget(t.Context(), d.AssertionSHA256); err != nil {
		t.Fatalf("Forget() error = %v", err)
	}
	if err := ledger.Record(t.Context(), d); err != nil {
		t.Errorf("Record() after Forget() error = %v, want nil", err)
	}
}
