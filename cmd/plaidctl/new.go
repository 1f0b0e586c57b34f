package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
)

const migrationsPath = "internal/migrations/postgres/sql"

var migrationName = regexp.MustCompile(`^[a-z0-9_]+$`)

func newMigrationCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "new-migration <name>",
		Short: "Create a new migration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !migrationName.MatchString(name) {
				return fmt.Errorf("migration name must be snake_case: %q", name)
			}

			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("failed to read migrations directory: %w", err)
			}

			filename := filepath.Join(dir, migrationFilename(nextMigrationNum(entries), name))
			if _, err := os.Stat(filename); err == nil {
				return fmt.Errorf("migration file already exists: %s", filename)
			}

			content := fmt.Sprintf("-- Migration: %s\n\n", name)
			if err := os.WriteFile(filename, []byte(content), 0o600); err != nil {
				return fmt.Errorf("failed to create migration file: %w", err)
			}

			fmt.Printf("Created migration: %s\n", filename)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", migrationsPath, "migrations directory")
	return cmd
}

func migrationFilename(num int, name string) string {
	return fmt.Sprintf("%06d_%s.sql", num, name)
}

func nextMigrationNum(entries []os.DirEntry) int {
	var highest int
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		prefix, _, _ := strings.Cut(entry.Name(), "_")
		var num int
		if _, err := fmt.Sscanf(prefix, "%d", &num); err != nil {
			continue
		}
		highest = max(highest, num)
	}
	return highest + 1
}
