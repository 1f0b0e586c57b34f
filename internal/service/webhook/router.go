package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/garrettladley/plaidgate/internal/metrics"
	"github.com/garrettladley/plaidgate/internal/xslog"
)

const (
	TypeTransactions = "TRANSACTIONS"
	TypeItem         = "ITEM"
	TypeAuth         = "AUTH"
	TypeAssets       = "ASSETS"
	TypeHoldings     = "HOLDINGS"
	TypeLiabilities  = "LIABILITIES"
)

const (
	CodeSyncUpdatesAvailable  = "SYNC_UPDATES_AVAILABLE"
	CodeDefaultUpdate         = "DEFAULT_UPDATE"
	CodeInitialUpdate         = "INITIAL_UPDATE"
	CodeHistoricalUpdate      = "HISTORICAL_UPDATE"
	CodeTransactionsRemoved   = "TRANSACTIONS_REMOVED"
	CodeError                 = "ERROR"
	CodePendingExpiration     = "PENDING_EXPIRATION"
	CodeUserPermissionRevoked = "USER_PERMISSION_REVOKED"
	CodeWebhookUpdateAck      = "WEBHOOK_UPDATE_ACKNOWLEDGED"
	CodeNewAccountsAvailable  = "NEW_ACCOUNTS_AVAILABLE"
	CodeAutomaticallyVerified = "AUTOMATICALLY_VERIFIED"
	CodeVerificationExpired   = "VERIFICATION_EXPIRED"
	CodeProductReady          = "PRODUCT_READY"
)

var knownCodes = map[string]map[string]struct{}{
	TypeTransactions: set(CodeSyncUpdatesAvailable, CodeDefaultUpdate, CodeInitialUpdate, CodeHistoricalUpdate, CodeTransactionsRemoved),
	TypeItem:         set(CodeError, CodePendingExpiration, CodeUserPermissionRevoked, CodeWebhookUpdateAck, CodeNewAccountsAvailable),
	TypeAuth:         set(CodeAutomaticallyVerified, CodeVerificationExpired),
	TypeAssets:       set(CodeProductReady, CodeError),
	TypeHoldings:     set(CodeDefaultUpdate),
	TypeLiabilities:  set(CodeDefaultUpdate),
}

func set(codes ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		m[c] = struct{}{}
	}
	return m
}

// IsKnownType reports whether the router recognizes the webhook category.
func IsKnownType(webhookType string) bool {
	_, ok := knownCodes[webhookType]
	return ok
}

// IsKnownCode reports whether code is a recognized code of webhookType.
func IsKnownCode(webhookType, code string) bool {
	_, ok := knownCodes[webhookType][code]
	return ok
}

type Handler interface {
	Handle(ctx context.Context, env Envelope) error
}

type HandlerFunc func(ctx context.Context, env Envelope) error

func (f HandlerFunc) Handle(ctx context.Context, env Envelope) error { return f(ctx, env) }

type route struct {
	webhookType string
	webhookCode string
}

const wildcard = "*"

// Router dispatches verified envelopes on (type, code). An exact registration
// wins over a type-wide one; an envelope with no registration is observed and
// acknowledged.
type Router struct {
	mu       sync.RWMutex
	handlers map[route]Handler
	metrics  *metrics.Webhook
}

func NewRouter(m *metrics.Webhook) *Router {
	return &Router{
		handlers: make(map[route]Handler),
		metrics:  m,
	}
}

// Register installs h for one (type, code) pair.
func (r *Router) Register(webhookType, webhookCode string, h Handler) error {
	if webhookCode == "" || webhookCode == wildcard {
		return fmt.Errorf("webhook code is required for %s", webhookType)
	}
	return r.register(route{webhookType: webhookType, webhookCode: webhookCode}, h)
}

// RegisterType installs h for every code of webhookType without an exact registration.
func (r *Router) RegisterType(webhookType string, h Handler) error {
	return r.register(route{webhookType: webhookType, webhookCode: wildcard}, h)
}

func (r *Router) register(key route, h Handler) error {
	if key.webhookType == "" {
		return fmt.Errorf("webhook type is required")
	}
	if h == nil {
		return fmt.Errorf("nil handler for %s/%s", key.webhookType, key.webhookCode)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[key]; exists {
		return fmt.Errorf("%w: %s/%s", ErrHandlerConflict, key.webhookType, key.webhookCode)
	}
	r.handlers[key] = h
	return nil
}

func (r *Router) lookup(webhookType, webhookCode string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if h, ok := r.handlers[route{webhookType: webhookType, webhookCode: webhookCode}]; ok {
		return h, true
	}
	h, ok := r.handlers[route{webhookType: webhookType, webhookCode: wildcard}]
	return h, ok
}

func (r *Router) Route(ctx context.Context, env Envelope) (Outcome, error) {
	logger := xslog.FromContext(ctx).With(xslog.WebhookGroup(env.WebhookType, env.WebhookCode, env.ItemID))
	ctx = xslog.WithLogger(ctx, logger)

	outcome := Outcome{
		Status:      StatusProcessed,
		WebhookType: env.WebhookType,
		WebhookCode: env.WebhookCode,
	}

	switch {
	case !IsKnownType(env.WebhookType):
		logger.WarnContext(ctx, "unhandled webhook type")
	case !IsKnownCode(env.WebhookType, env.WebhookCode):
		logger.InfoContext(ctx, "unhandled webhook code")
	default:
		observe(ctx, logger, env)
	}

	h, ok := r.lookup(env.WebhookType, env.WebhookCode)
	if !ok {
		return outcome, nil
	}

	start := time.Now()
	err := h.Handle(ctx, env)
	r.metrics.ObserveDispatch(env.WebhookType, time.Since(start).Seconds())
	if err != nil {
		outcome.Status = StatusError
		return outcome, fmt.Errorf("handling %s/%s: %w", env.WebhookType, env.WebhookCode, err)
	}

	return outcome, nil
}

// observe logs a recognized webhook at a level reflecting what it asks of the operator.
func observe(ctx context.Context, logger *slog.Logger, env Envelope) {
	switch env.WebhookType {
	case TypeTransactions:
		attrs := []any{}
		if env.NewTransactions != nil {
			attrs = append(attrs, slog.Int("new_transactions", *env.NewTransactions))
		}
		if n := len(env.RemovedTransactions); n > 0 {
			attrs = append(attrs, slog.Int("removed_transactions", n))
		}
		if complete, ok := env.ExtraBool("historical_update_complete"); ok {
			attrs = append(attrs, slog.Bool("historical_update_complete", complete))
		}
		logger.InfoContext(ctx, "transactions update available", attrs...)

	case TypeItem:
		switch env.WebhookCode {
		case CodeError:
			attrs := []any{}
			if env.Error != nil {
				attrs = append(attrs,
					slog.String("error_type", string(env.Error.ErrorType)),
					slog.String("error_code", env.Error.ErrorCode))
			}
			logger.WarnContext(ctx, "item entered an error state", attrs...)
		case CodePendingExpiration:
			expires, _ := env.ExtraString("consent_expiration_time")
			logger.WarnContext(ctx, "item consent pending expiration", slog.String("consent_expiration_time", expires))
		case CodeUserPermissionRevoked:
			logger.WarnContext(ctx, "user revoked item permissions")
		case CodeWebhookUpdateAck:
			url, _ := env.ExtraString("new_webhook_url")
			logger.InfoContext(ctx, "webhook url update acknowledged", slog.String("new_webhook_url", url))
		default:
			logger.InfoContext(ctx, "item update")
		}

	case TypeAuth:
		if env.WebhookCode == CodeVerificationExpired {
			logger.WarnContext(ctx, "account verification expired")
			return
		}
		logger.InfoContext(ctx, "account automatically verified")

	default:
		logger.InfoContext(ctx, "webhook received")
	}
}
