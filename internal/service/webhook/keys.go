package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garrettladley/plaidgate/internal/client/plaid"
	"github.com/garrettladley/plaidgate/internal/metrics"
	"github.com/garrettladley/plaidgate/internal/storage"
	"github.com/garrettladley/plaidgate/internal/xslog"
	go_json "github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultKeyTTL          = 24 * time.Hour
	DefaultKeyFetchTimeout = 5 * time.Second
)

// KeyFetcher retrieves a verification key from the provider.
type KeyFetcher interface {
	GetVerificationKey(ctx context.Context, keyID string) (*plaid.VerificationKey, error)
}

// KeyProvider resolves a verification key by id.
type KeyProvider interface {
	GetVerificationKey(ctx context.Context, keyID string) (plaid.VerificationKey, error)
}

// KeyCache serves verification keys from a KeyStore and refetches them from
// the provider once they are older than the TTL. Failed fetches leave the
// store untouched.
type KeyCache struct {
	store        storage.KeyStore
	fetcher      KeyFetcher
	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
	metrics      *metrics.Webhook
	group        singleflight.Group
}

var _ KeyProvider = (*KeyCache)(nil)

type KeyCacheOption func(*KeyCache)

func WithKeyTTL(ttl time.Duration) KeyCacheOption {
	return func(c *KeyCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithKeyFetchTimeout(d time.Duration) KeyCacheOption {
	return func(c *KeyCache) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

func WithKeyClock(now func() time.Time) KeyCacheOption {
	return func(c *KeyCache) { c.now = now }
}

func WithKeyMetrics(m *metrics.Webhook) KeyCacheOption {
	return func(c *KeyCache) { c.metrics = m }
}

func NewKeyCache(store storage.KeyStore, fetcher KeyFetcher, opts ...KeyCacheOption) *KeyCache {
	c := &KeyCache{
		store:        store,
		fetcher:      fetcher,
		ttl:          DefaultKeyTTL,
		fetchTimeout: DefaultKeyFetchTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *KeyCache) GetVerificationKey(ctx context.Context, keyID string) (plaid.VerificationKey, error) {
	logger := xslog.FromContext(ctx)

	entry, err := c.store.Get(ctx, keyID)
	switch {
	case err == nil && c.fresh(entry):
		key, err := decodeKey(entry)
		if err == nil {
			c.metrics.ObserveKeyCache(true)
			return key, nil
		}
		logger.WarnContext(ctx, "discarding undecodable cached key", xslog.KeyID(keyID), xslog.Error(err))
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		logger.WarnContext(ctx, "key store lookup failed", xslog.KeyID(keyID), xslog.Error(err))
	}

	c.metrics.ObserveKeyCache(false)

	v, err, _ := c.group.Do(keyID, func() (any, error) {
		return c.refresh(ctx, keyID)
	})
	if err != nil {
		return plaid.VerificationKey{}, err
	}
	return v.(plaid.VerificationKey), nil
}

func (c *KeyCache) fresh(entry storage.KeyEntry) bool {
	return c.now().Sub(entry.FetchedAt) < c.ttl
}

// refresh runs detached from the caller's cancellation so one abandoned
// request does not fail the callers coalesced onto the same fetch.
func (c *KeyCache) refresh(ctx context.Context, keyID string) (plaid.VerificationKey, error) {
	logger := xslog.FromContext(ctx)

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
	defer cancel()

	start := time.Now()
	key, err := c.fetcher.GetVerificationKey(fetchCtx, keyID)
	c.metrics.ObserveKeyFetch(err)
	if err != nil {
		logger.ErrorContext(ctx, "failed to fetch verification key",
			xslog.KeyID(keyID),
			xslog.Duration(time.Since(start)),
			xslog.Error(err))
		return plaid.VerificationKey{}, fmt.Errorf("%w: %w", ErrKeyFetch, err)
	}

	raw, err := go_json.Marshal(key)
	if err != nil {
		return plaid.VerificationKey{}, fmt.Errorf("%w: encoding key: %w", ErrKeyFetch, err)
	}

	entry := storage.KeyEntry{
		KeyID:     keyID,
		JWK:       raw,
		FetchedAt: c.now(),
	}
	// the store keeps entries past the TTL; freshness is judged on FetchedAt
	if err := c.store.Set(ctx, entry, 2*c.ttl); err != nil {
		logger.WarnContext(ctx, "failed to store verification key", xslog.KeyID(keyID), xslog.Error(err))
	}

	logger.InfoContext(ctx, "refreshed verification key",
		xslog.KeyID(keyID),
		xslog.Duration(time.Since(start)))

	return *key, nil
}

func decodeKey(entry storage.KeyEntry) (plaid.VerificationKey, error) {
	var key plaid.VerificationKey
	if err := go_json.Unmarshal(entry.JWK, &key); err != nil {
		return plaid.VerificationKey{}, fmt.Errorf("decoding cached key: %w", err)
	}
	return key, nil
}
