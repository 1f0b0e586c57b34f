package webhook

import "context"

type ProcessRequest struct {
	Body []byte
	// Verification is the raw Plaid-Verification header value.
	Verification string
}

type Status string

const (
	StatusProcessed Status = "processed"
	StatusRejected  Status = "rejected"
	StatusError     Status = "error"
)

type Outcome struct {
	Status      Status `json:"status"`
	WebhookType string `json:"webhook_type"`
	WebhookCode string `json:"webhook_code"`
}

type Service interface {
	// ProcessWebhook verifies the signed assertion over the body, parses the
	// envelope and routes it to the registered handlers.
	// Returns *AuthorizationError if verification fails.
	// Returns ErrMalformedEnvelope if the body is not a webhook envelope.
	// Returns the handler's error if a handler fails.
	ProcessWebhook(ctx context.Context, req ProcessRequest) (Outcome, error)
}
