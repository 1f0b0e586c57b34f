package plaid

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/garrettladley/plaidgate/internal/xhttp"
	go_json "github.com/goccy/go-json"
)

const (
	headerClientID = "PLAID-CLIENT-ID"
	headerSecret   = "PLAID-SECRET"
)

type Client struct {
	Webhook    WebhookService
	Categories CategoriesService

	env        Environment
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(clientID string, secret string, opts ...Option) *Client {
	cfg := &clientConfig{
		env:     Sandbox,
		logger:  slog.Default(),
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	baseURL := cfg.baseURL
	if baseURL == "" {
		baseURL = cfg.env.BaseURL()
	}

	base := cfg.transport
	if base == nil {
		base = http.DefaultTransport
	}

	c := &Client{
		env:     cfg.env,
		baseURL: baseURL,
		httpClient: xhttp.NewHTTPClient(
			xhttp.WithTransport(&plaidTransport{base: base, clientID: clientID, secret: secret}),
			xhttp.WithTimeout(cfg.timeout),
		),
		logger: cfg.logger,
	}

	c.Webhook = &webhookService{client: c}
	c.Categories = &categoriesService{client: c}

	return c
}

func (c *Client) Environment() Environment { return c.env }

type clientConfig struct {
	env       Environment
	baseURL   string
	logger    *slog.Logger
	timeout   time.Duration
	transport http.RoundTripper
}

type Option func(*clientConfig)

func WithEnvironment(env Environment) Option {
	return func(cfg *clientConfig) { cfg.env = env }
}

// WithBaseURL overrides the environment's base URL.
func WithBaseURL(baseURL string) Option {
	return func(cfg *clientConfig) { cfg.baseURL = baseURL }
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *clientConfig) { cfg.logger = logger }
}

func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) { cfg.timeout = d }
}

func WithTransport(rt http.RoundTripper) Option {
	return func(cfg *clientConfig) { cfg.transport = rt }
}

// do POSTs a JSON body to route and decodes the JSON response into result.
// Every provider endpoint is a POST.
func (c *Client) do(ctx context.Context, route string, body any, result any) error {
	payload, err := go_json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return parseAPIError(resp)
	}

	if result != nil {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		if err := go_json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

type plaidTransport struct {
	base     http.RoundTripper
	clientID string
	secret   string
}

var _ http.RoundTripper = (*plaidTransport)(nil)

func (t *plaidTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set(headerClientID, t.clientID)
	req.Header.Set(headerSecret, t.secret)
	xhttp.SetRequestHeaderJSON(req)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("round trip: %w", err)
	}
	return resp, nil
}
