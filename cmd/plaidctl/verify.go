package main

import (
	"fmt"
	"os"
	"time"

	"github.com/garrettladley/plaidgate/internal/service/webhook"
	"github.com/garrettladley/plaidgate/internal/storage"
	"github.com/garrettladley/plaidgate/internal/xslog"
	"github.com/spf13/cobra"
)

func verifyCmd() *cobra.Command {
	var (
		bodyPath string
		header   string
		maxAge   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a captured webhook body against its Plaid-Verification header",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(bodyPath)
			if err != nil {
				return fmt.Errorf("failed to read body: %w", err)
			}

			client, err := newPlaidClient()
			if err != nil {
				return err
			}

			store := storage.NewMemoryKeyStore(time.Minute)
			defer func() { _ = store.Close() }()

			ctx := xslog.WithLogger(cmd.Context(), cliLogger())
			verifier := webhook.NewVerifier(
				webhook.NewKeyCache(store, client.Webhook),
				webhook.WithMaxAssertionAge(maxAge),
			)

			result := verifier.Verify(ctx, body, header)
			if !result.Valid {
				return fmt.Errorf("webhook rejected: %s (key %q)", result.Reason, result.KeyID)
			}

			fmt.Printf("valid: key %s, body sha256 %s\n", result.KeyID, result.BodySHA256)
			return nil
		},
	}

	cmd.Flags().StringVar(&bodyPath, "body", "", "file holding the raw webhook body")
	cmd.Flags().StringVar(&header, "header", "", "Plaid-Verification header value")
	cmd.Flags().DurationVar(&maxAge, "max-age", 24*time.Hour, "oldest acceptable assertion; captured webhooks are usually older than the live limit")
	_ = cmd.MarkFlagRequired("body")
	_ = cmd.MarkFlagRequired("header")
	return cmd
}
