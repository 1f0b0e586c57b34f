package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ DeliveryLedger = (*PostgresDeliveryLedger)(nil)

type PostgresDeliveryLedger struct {
	pool *pgxpool.Pool
}

func NewPostgresDeliveryLedger(pool *pgxpool.Pool) *PostgresDeliveryLedger {
	return &PostgresDeliveryLedger{pool: pool}
}

const insertDelivery = `
INSERT INTO webhook_deliveries (id, assertion_sha256, body_sha256, webhook_type, webhook_code, item_id, received_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
ON CONFLICT (assertion_sha256) DO NOTHING
RETURNING id`

func (l *PostgresDeliveryLedger) Record(ctx context.Context, d Delivery) error {
	var id string
	err := l.pool.QueryRow(ctx, insertDelivery,
		d.ID,
		d.AssertionSHA256,
		d.BodySHA256,
		d.WebhookType,
		d.WebhookCode,
		d.ItemID,
		d.ReceivedAt,
	).Scan(&id)
	// no row comes back when ON CONFLICT DO NOTHING triggers
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert webhook delivery: %w", err)
	}
	return nil
}

func (l *PostgresDeliveryLedger) Forget(ctx context.Context, assertionSHA256 string) error {
	if _, err := l.pool.Exec(ctx, `DELETE FROM webhook_deliveries WHERE assertion_sha256 = $1`, assertionSHA256); err != nil {
		return fmt.Errorf("delete webhook delivery: %w", err)
	}
	return nil
}
