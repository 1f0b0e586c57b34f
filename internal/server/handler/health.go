package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/garrettladley/plaidgate/internal/client/plaid"
	"github.com/garrettladley/plaidgate/internal/version"
	"github.com/garrettladley/plaidgate/internal/xhttp"
	"github.com/garrettladley/plaidgate/internal/xslog"
)

const (
	serviceName  = "plaidgate"
	probeTimeout = 5 * time.Second
	prefixLength = 8
)

type Health struct {
	categories plaid.CategoriesService
	env        plaid.Environment
	clientID   string
	now        func() time.Time
}

func NewHealth(categories plaid.CategoriesService, env plaid.Environment, clientID string) *Health {
	return &Health{
		categories: categories,
		env:        env,
		clientID:   clientID,
		now:        time.Now,
	}
}

type connectionStatus struct {
	IsConnected bool   `json:"is_connected"`
	Error       string `json:"error,omitempty"`
}

type healthResponse struct {
	Status           string           `json:"status"`
	Timestamp        string           `json:"timestamp"`
	Service          string           `json:"service"`
	Version          string           `json:"version"`
	PlaidEnvironment string           `json:"plaid_environment"`
	PlaidConnection  connectionStatus `json:"plaid_connection"`
}

type validateResponse struct {
	connectionStatus
	Environment    string `json:"environment"`
	ClientIDPrefix string `json:"client_id_prefix"`
	Timestamp      string `json:"timestamp"`
}

// probe lists categories, which needs valid credentials but no item.
func (h *Health) probe(ctx context.Context) connectionStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if _, err := h.categories.Get(ctx); err != nil {
		xslog.FromContext(ctx).WarnContext(ctx, "plaid connection probe failed",
			xslog.PlaidEnvironment(h.env.String()),
			xslog.Error(err))
		return connectionStatus{Error: err.Error()}
	}
	return connectionStatus{IsConnected: true}
}

func (h *Health) timestamp() string {
	return h.now().UTC().Format(time.RFC3339)
}

// HandleHealth handles GET /health requests.
func (h *Health) HandleHealth(w http.ResponseWriter, r *http.Request) {
	conn := h.probe(r.Context())

	resp := healthResponse{
		Status:           "healthy",
		Timestamp:        h.timestamp(),
		Service:          serviceName,
		Version:          version.Get(),
		PlaidEnvironment: h.env.String(),
		PlaidConnection:  conn,
	}
	status := http.StatusOK
	if !conn.IsConnected {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	xhttp.WriteJSON(w, status, resp)
}

// HandleValidateConnection handles GET /validate-connection requests.
func (h *Health) HandleValidateConnection(w http.ResponseWriter, r *http.Request) {
	conn := h.probe(r.Context())

	prefix := h.clientID
	if len(prefix) > prefixLength {
		prefix = prefix[:prefixLength]
	}

	status := http.StatusOK
	if !conn.IsConnected {
		status = http.StatusServiceUnavailable
	}

	xhttp.WriteJSON(w, status, validateResponse{
		connectionStatus: conn,
		Environment:      h.env.String(),
		ClientIDPrefix:   prefix,
		Timestamp:        h.timestamp(),
	})
}
