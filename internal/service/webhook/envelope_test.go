package webhook

import (
	"errors"
	"testing"

	"github.com/garrettladley/plaidgate/internal/client/plaid"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestParseEnvelope(t *testing.T) {
	t.Parallel()

	newTx := 3

	tests := []struct {
		name    string
		body    string
		want    Envelope
		wantErr error
	}{
		{
			name: "transactions update",
			body: `{"webhook_type":"TRANSACTIONS","webhook_code":"DEFAULT_UPDATE","item_id":"item-1","new_transactions":3,"environment":"sandbox"}`,
			want: Envelope{
				WebhookType:     "TRANSACTIONS",
				WebhookCode:     "DEFAULT_UPDATE",
				ItemID:          "item-1",
				NewTransactions: &newTx,
				Environment:     "sandbox",
			},
		},
		{
			name: "removed transactions",
			body: `{"webhook_type":"TRANSACTIONS","webhook_code":"TRANSACTIONS_REMOVED","item_id":"item-1","removed_transactions":["a","b"]}`,
			want: Envelope{
				WebhookType:         "TRANSACTIONS",
				WebhookCode:         "TRANSACTIONS_REMOVED",
				ItemID:              "item-1",
				RemovedTransactions: []string{"a", "b"},
			},
		},
		{
			name: "item error",
			body: `{"webhook_type":"ITEM","webhook_code":"ERROR","item_id":"item-2","error":{"error_type":"ITEM_ERROR","error_code":"ITEM_LOGIN_REQUIRED","error_message":"the login details of this item have changed","display_message":"","status":400}}`,
			want: Envelope{
				WebhookType: "ITEM",
				WebhookCode: "ERROR",
				ItemID:      "item-2",
				Error: &plaid.Error{
					StatusCode:   400,
					ErrorType:    plaid.ErrorTypeItem,
					ErrorCode:    "ITEM_LOGIN_REQUIRED",
					ErrorMessage: "the login details of this item have changed",
				},
			},
		},
		{
			name: "extra fields kept",
			body: `{"webhook_type":"ITEM","webhook_code":"PENDING_EXPIRATION","item_id":"item-3","consent_expiration_time":"2026-04-01T00:00:00Z"}`,
			want: Envelope{
				WebhookType: "ITEM",
				WebhookCode: "PENDING_EXPIRATION",
				ItemID:      "item-3",
			},
		},
		{
			name:    "invalid json",
			body:    `{"webhook_type":`,
			wantErr: ErrMalformedEnvelope,
		},
		{
			name:    "missing type",
			body:    `{"webhook_code":"DEFAULT_UPDATE"}`,
			wantErr: ErrMalformedEnvelope,
		},
		{
			name:    "missing code",
			body:    `{"webhook_type":"TRANSACTIONS"}`,
			wantErr: ErrMalformedEnvelope,
		},
		{
			name:    "not an object",
			body:    `["TRANSACTIONS"]`,
			wantErr: ErrMalformedEnvelope,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseEnvelope([]byte(tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseEnvelope() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEnvelope() error = %v", err)
			}
			if string(got.Raw) != tt.body {
				t.Errorf("Raw = %q, want original body", got.Raw)
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.IgnoreFields(Envelope{}, "Extra", "Raw")); diff != "" {
				t.Errorf("ParseEnvelope() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEnvelopeExtras(t *testing.T) {
	t.Parallel()

	env, err := ParseEnvelope([]byte(`{"webhook_type":"TRANSACTIONS","webhook_code":"SYNC_UPDATES_AVAILABLE","historical_update_complete":true,"new_webhook_url":"https://example.com/hook"}`))
	if err != nil {
		t.Fatalf("ParseEnvelope() error = %v", err)
	}

	if len(env.Extra) != 2 {
		t.Errorf("len(Extra) = %d, want 2", len(env.Extra))
	}
	if got, ok := env.ExtraBool("historical_update_complete"); !ok || !got {
		t.Errorf("ExtraBool() = %v, %v, want true, true", got, ok)
	}
	if got, ok := env.ExtraString("new_webhook_url"); !ok || got != "https://example.com/hook" {
		t.Errorf("ExtraString() = %q, %v", got, ok)
	}
	if _, ok := env.ExtraString("historical_update_complete"); ok {
		t.Error("ExtraString() on a boolean succeeded")
	}
	if _, ok := env.ExtraBool("missing"); ok {
		t.Error("ExtraBool() on a missing field succeeded")
	}
}
