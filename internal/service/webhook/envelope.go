package webhook

import (
	"fmt"

	"github.com/garrettladley/plaidgate/internal/client/plaid"
	go_json "github.com/goccy/go-json"
)

// Envelope is the decoded body of a verified webhook.
type Envelope struct {
	WebhookType         string       `json:"webhook_type"`
	WebhookCode         string       `json:"webhook_code"`
	ItemID              string       `json:"item_id,omitempty"`
	Error               *plaid.Error `json:"error,omitempty"`
	NewTransactions     *int         `json:"new_transactions,omitempty"`
	RemovedTransactions []string     `json:"removed_transactions,omitempty"`
	Environment         string       `json:"environment,omitempty"`

	// Extra holds every top-level field not decoded above.
	Extra map[string]go_json.RawMessage `json:"-"`
	Raw   []byte                        `json:"-"`
}

var envelopeFields = map[string]struct{}{
	"webhook_type":         {},
	"webhook_code":         {},
	"item_id":              {},
	"error":                {},
	"new_transactions":     {},
	"removed_transactions": {},
	"environment":          {},
}

func ParseEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := go_json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}
	if env.WebhookType == "" {
		return Envelope{}, fmt.Errorf("%w: missing webhook_type", ErrMalformedEnvelope)
	}
	if env.WebhookCode == "" {
		return Envelope{}, fmt.Errorf("%w: missing webhook_code", ErrMalformedEnvelope)
	}

	var fields map[string]go_json.RawMessage
	if err := go_json.Unmarshal(body, &fields); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}
	for name, value := range fields {
		if _, ok := envelopeFields[name]; ok {
			continue
		}
		if env.Extra == nil {
			env.Extra = make(map[string]go_json.RawMessage)
		}
		env.Extra[name] = value
	}

	env.Raw = body
	return env, nil
}

// ExtraString returns the named extra field if it is a JSON string.
func (e Envelope) ExtraString(name string) (string, bool) {
	raw, ok := e.Extra[name]
	if !ok {
		return "", false
	}
	var s string
	if err := go_json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// ExtraBool returns the named extra field if it is a JSON boolean.
func (e Envelope) ExtraBool(name string) (bool, bool) {
	raw, ok := e.Extra[name]
	if !ok {
		return false, false
	}
	var b bool
	if err := go_json.Unmarshal(raw, &b); err != nil {
		return false, false
	}
	return b, true
}
