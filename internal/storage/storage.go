package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate delivery")
)

type RateLimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateLimitResult, error)
}

type Backend interface {
	RateLimiter

	Close() error

	Ping(ctx context.Context) error
}

// KeyEntry is a provider verification key as fetched, before parsing.
// JWK holds the raw JSON Web Key so stores stay independent of the crypto layer.
type KeyEntry struct {
	KeyID     string    `json:"key_id"`
	JWK       []byte    `json:"jwk"`
	FetchedAt time.Time `json:"fetched_at"`
}

// KeyStore holds verification keys by key id.
type KeyStore interface {
	// Get returns ErrNotFound if the key is not stored or the store expired it.
	Get(ctx context.Context, keyID string) (KeyEntry, error)

	// Set stores the entry; the store may drop it after ttl.
	Set(ctx context.Context, entry KeyEntry, ttl time.Duration) error
}

// Delivery is one verified send of a webhook. AssertionSHA256 is the digest of
// the signed verification header and identifies the send; BodySHA256 does not,
// since distinct events can share a body byte for byte.
type Delivery struct {
	ID              string    `json:"id"`
	AssertionSHA256 string    `json:"assertion_sha256"`
	BodySHA256      string    `json:"body_sha256"`
	WebhookType     string    `json:"webhook_type"`
	WebhookCode     string    `json:"webhook_code"`
	ItemID          string    `json:"item_id,omitempty"`
	ReceivedAt      time.Time `json:"received_at"`
}

// DeliveryLedger records verified webhook deliveries.
type DeliveryLedger interface {
	// Record stores the delivery. Returns ErrDuplicate if a delivery with the
	// same assertion hash was already recorded.
	Record(ctx context.Context, d Delivery) error

	// Forget removes a recorded delivery so a retry of it is dispatched again.
	Forget(ctx context.Context, assertionSHA256 string) error
}
