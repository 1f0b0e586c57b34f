package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check provider credentials with a categories request",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newPlaidClient()
			if err != nil {
				return err
			}

			resp, err := client.Categories.Get(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s: %w", client.Environment(), err)
			}

			fmt.Printf("%s: connected (%d categories, request %s)\n", client.Environment(), len(resp.Categories), resp.RequestID)
			return nil
		},
	}
}
