package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver for goose
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	applog "wallet/logger"
	_ "wallet/migration" // registers the Go migrations
)

const defaultConnStr = "host=localhost user=postgres dbname=postgres port=5432 sslmode=disable TimeZone=UTC"

func migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the snapshot database",
		Long:  `This command migrates the snapshot database with goose and prints the migration status.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			up, _ := cmd.Flags().GetBool("up")
			down, _ := cmd.Flags().GetBool("down")
			migrationsDir, _ := cmd.Flags().GetString("dir")

			if up && down {
				return cmd.Help()
			}

			// The schema may not exist yet, so connect without a search_path.
			connStr := defaultConnStr
			if cfg.DatabaseURL != "" {
				connStr = cfg.DatabaseURL
				applog.DB.Info().Msg("Using DATABASE_URL: *")
			} else {
				applog.DB.Info().Str("dsn", connStr).Msg("Using default connection string")
			}

			if err := goose.SetDialect("postgres"); err != nil {
				return fmt.Errorf("failed to set goose dialect: %w", err)
			}

			db, err := sql.Open("postgres", connStr)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
			defer pingCancel()
			if err := db.PingContext(pingCtx); err != nil {
				return fmt.Errorf("failed to ping database: %w", err)
			}
			applog.DB.Info().Msg("Successfully connected to the database.")

			switch {
			case up:
				applog.DB.Info().Msg("Running 'up' migrations...")
				if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
					return fmt.Errorf("goose up failed: %w", err)
				}
			case down:
				applog.DB.Info().Msg("Rolling back the last migration...")
				if err := goose.DownContext(ctx, db, migrationsDir); err != nil {
					return fmt.Errorf("goose down failed: %w", err)
				}
			}

			if err := goose.StatusContext(ctx, db, migrationsDir); err != nil {
				return fmt.Errorf("goose status failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolP("up", "u", true, "up the version of db")
	cmd.Flags().BoolP("down", "d", false, "down the version of db")
	cmd.Flags().String("dir", "migration", "directory holding the migration sources")

	return cmd
}
