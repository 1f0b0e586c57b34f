package server

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/garrettladley/plaidgate/internal/client/plaid"
	appenv "github.com/garrettladley/plaidgate/internal/env"
	"github.com/garrettladley/plaidgate/internal/xslog"
)

type Config struct {
	Port      string             `env:"PORT" envDefault:"8080"`
	Env       appenv.Environment `env:"ENV" envDefault:"development"`
	LogLevel  xslog.Level        `env:"LOG_LEVEL" envDefault:"info"`
	Plaid     Plaid              `envPrefix:"PLAID_"`
	Webhook   Webhook            `envPrefix:"WEBHOOK_"`
	RateLimit RateLimit          `envPrefix:"RATE_"`
	Redis     Redis              `envPrefix:"REDIS_"`
	Database  Database           `envPrefix:"DATABASE_"`
}

type Plaid struct {
	ClientID string            `env:"CLIENT_ID,required,notEmpty"`
	Secret   string            `env:"SECRET,required,notEmpty"`
	Env      plaid.Environment `env:"ENV" envDefault:"sandbox"`
	Timeout  time.Duration     `env:"TIMEOUT" envDefault:"10s"`
}

type Webhook struct {
	KeyCacheTTL     time.Duration `env:"KEY_CACHE_TTL" envDefault:"24h"`
	KeyFetchTimeout time.Duration `env:"KEY_FETCH_TIMEOUT" envDefault:"5s"`
	MaxAssertionAge time.Duration `env:"MAX_ASSERTION_AGE" envDefault:"5m"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	// DedupeRetention bounds the in-memory delivery ledger; the Postgres ledger keeps everything.
	DedupeRetention time.Duration `env:"DEDUPE_RETENTION" envDefault:"24h"`
}

type RateLimit struct {
	Limit float64 `env:"LIMIT" envDefault:"10"`
	Burst int     `env:"BURST" envDefault:"20"`

	// TrustedProxies lists CIDRs or addresses allowed to set X-Forwarded-For.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// Redis is optional; without a URL the key cache and rate limiter stay in process.
type Redis struct {
	URL string `env:"URL"`
}

// Database is optional; without a URL the delivery ledger stays in process.
type Database struct {
	URL string `env:"URL"`
}

func ReadConfig() (Config, error) {
	return env.ParseAs[Config]()
}
