package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/garrettladley/plaidgate/internal/version"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "plaidctl",
		Short:   "Operate the plaidgate webhook service",
		Version: version.Get(),
	}
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(newMigrationCmd())
	rootCmd.AddCommand(keyCmd())
	rootCmd.AddCommand(pingCmd())
	rootCmd.AddCommand(verifyCmd())

	if err := fang.Execute(context.Background(), rootCmd, fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM)); err != nil {
		os.Exit(1)
	}
}
