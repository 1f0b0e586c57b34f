package storage

import (
	"context"
	"sync"
	"time"
)

var _ DeliveryLedger = (*MemoryDeliveryLedger)(nil)

// MemoryDeliveryLedger keeps deliveries for a retention window. Replays older
// than the window are treated as new deliveries.
type MemoryDeliveryLedger struct {
	mu         sync.Mutex
	deliveries map[string]Delivery
	retention  time.Duration
	now        func() time.Time
}

func NewMemoryDeliveryLedger(retention time.Duration) *MemoryDeliveryLedger {
	return &MemoryDeliveryLedger{
		deliveries: make(map[string]Delivery),
		retention:  retention,
		now:        time.Now,
	}
}

func (l *MemoryDeliveryLedger) Record(_ context.Context, d Delivery) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if _, ok := l.deliveries[d.AssertionSHA256]; ok {
		return ErrDuplicate
	}
	if d.ReceivedAt.IsZero() {
		d.ReceivedAt = now
	}
	l.deliveries[d.AssertionSHA256] = d
	return nil
}

func (l *MemoryDeliveryLedger) prune(now time.Time) {
	for key, d := range l.deliveries {
		if now.Sub(d.ReceivedAt) > l.retention {
			delete(l.deliveries, key)
		}
	}
}

func (l *MemoryDeliveryLedger) Forget(_ context.Context, assertionSHA256 string) error {
	l.mu.Lock()
	delete(l.deliveries, assertionSHA256)
	l.mu.Unlock()
	return nil
}
