package plaid

import "context"

type WebhookService interface {
	// GetVerificationKey fetches the public JWK used to sign webhooks with the given key id.
	GetVerificationKey(ctx context.Context, keyID string) (*VerificationKey, error)
}

type CategoriesService interface {
	// Get lists transaction categories. It needs no item, which makes it a cheap liveness probe.
	Get(ctx context.Context) (*CategoriesResponse, error)
}
