package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/ocwatch/internal/adapters/turso"
	"github.com/emiliopalmerini/ocwatch/internal/infrastructure/config"
	"github.com/emiliopalmerini/ocwatch/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [version]",
	Short: "Run database migrations",
	Long: `Run database migrations.

Without arguments, runs all pending migrations (up).
With a version number, migrates to that specific version (up or down as needed).

Examples:
  ocwatch migrate      # Run all pending migrations
  ocwatch migrate 1    # Migrate to version 1
  ocwatch migrate 0    # Rollback all migrations`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadDatabase()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := turso.NewDB(*cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	current, dirty, err := migrate.Version(ctx, db)
	if err == nil && !dirty {
		fmt.Printf("Current version: %d\n", current)
	}

	if len(args) == 0 {
		return migrate.Up(ctx, db)
	}

	target, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version number: %s", args[0])
	}
	return migrate.To(ctx, db, target)
}
