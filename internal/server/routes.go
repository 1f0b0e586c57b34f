package server

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/garrettladley/plaidgate/internal/client/plaid"
	"github.com/garrettladley/plaidgate/internal/metrics"
	"github.com/garrettladley/plaidgate/internal/server/handler"
	servermw "github.com/garrettladley/plaidgate/internal/server/middleware"
	"github.com/garrettladley/plaidgate/internal/service/webhook"
	"github.com/garrettladley/plaidgate/internal/storage"
	"github.com/garrettladley/plaidgate/internal/xhttp/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type Deps struct {
	Logger      *slog.Logger
	Webhook     webhook.Service
	Categories  plaid.CategoriesService
	PlaidEnv    plaid.Environment
	ClientID    string
	RateLimiter storage.RateLimiter
	Metrics     *metrics.Webhook
	Gatherer    prometheus.Gatherer

	MaxBodyBytes int64

	// TrustedProxies may set X-Forwarded-For; empty means the peer address is the client.
	TrustedProxies []netip.Prefix
}

// NewHandler assembles the service's routes behind the common middleware chain.
func NewHandler(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	webhookHandler := handler.NewWebhook(d.Webhook, d.MaxBodyBytes)
	healthHandler := handler.NewHealth(d.Categories, d.PlaidEnv, d.ClientID)

	mux := http.NewServeMux()

	// provider-facing routes, protected by the IP rate limiter
	webhookMux := http.NewServeMux()
	webhookMux.HandleFunc("POST /webhook", webhookHandler.HandleWebhook)
	webhookMux.HandleFunc("POST /webhooks/plaid", webhookHandler.HandleWebhook)
	webhookWrapped := middleware.Chain(webhookMux,
		servermw.RateLimit(d.RateLimiter, d.Metrics, d.TrustedProxies),
	)
	mux.Handle("/webhook", webhookWrapped)
	mux.Handle("/webhooks/", webhookWrapped)

	mux.HandleFunc("GET /health", healthHandler.HandleHealth)
	mux.HandleFunc("GET /validate-connection", healthHandler.HandleValidateConnection)
	if d.Gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(d.Gatherer))
	}

	return middleware.Chain(mux,
		middleware.Recovery,
		middleware.RequestID(),
		middleware.Logger(d.Logger),
		middleware.Logging,
		middleware.SecurityHeaders,
	)
}
