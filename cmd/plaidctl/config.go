package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/garrettladley/plaidgate/internal/client/plaid"
	"github.com/garrettladley/plaidgate/internal/server"
	"github.com/garrettladley/plaidgate/internal/xslog"
)

type plaidConfig struct {
	Plaid server.Plaid `envPrefix:"PLAID_"`
}

type databaseConfig struct {
	Database server.Database `envPrefix:"DATABASE_"`
}

func newPlaidClient() (*plaid.Client, error) {
	cfg, err := env.ParseAs[plaidConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to read plaid config: %w", err)
	}

	return plaid.New(cfg.Plaid.ClientID, cfg.Plaid.Secret,
		plaid.WithEnvironment(cfg.Plaid.Env),
		plaid.WithTimeout(cfg.Plaid.Timeout),
		plaid.WithLogger(cliLogger()),
	), nil
}

func databaseURL() (string, error) {
	cfg, err := env.ParseAs[databaseConfig]()
	if err != nil {
		return "", fmt.Errorf("failed to read database config: %w", err)
	}
	if cfg.Database.URL == "" {
		return "", fmt.Errorf("DATABASE_URL is required")
	}
	return cfg.Database.URL, nil
}

func cliLogger() *slog.Logger {
	return xslog.NewLoggerFromEnv(os.Stderr)
}
