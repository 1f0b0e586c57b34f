package main

import (
	"fmt"
	"os"
	"time"

	go_json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func keyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "key <kid>",
		Short: "Fetch a webhook verification key from the provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newPlaidClient()
			if err != nil {
				return err
			}

			key, err := client.Webhook.GetVerificationKey(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to fetch key: %w", err)
			}

			if _, err := key.PublicKey(); err != nil {
				return fmt.Errorf("provider returned an unusable key: %w", err)
			}

			enc := go_json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(key); err != nil {
				return fmt.Errorf("failed to encode key: %w", err)
			}

			if key.IsExpired(time.Now()) {
				fmt.Fprintln(os.Stderr, "warning: key has expired")
			}
			return nil
		},
	}
}
