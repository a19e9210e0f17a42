package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"hamarabooks/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

func main() {
	config.LoadEnvFiles()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	dsn string
	dir string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the storefront database schema",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.dsn, "dsn", config.DatabaseDSN(), "Postgres connection string (DB_DSN)")
	root.PersistentFlags().StringVar(&opts.dir, "dir", config.MigrationsDir(), "migrations directory (MIGRATIONS_DIR)")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withDB(opts, func(cmd *cobra.Command, db *sql.DB) error {
				if err := goose.UpContext(cmd.Context(), db, opts.dir); err != nil {
					return fmt.Errorf("run migrations: %w", err)
				}
				cmd.Println("Migrations applied successfully")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			Args:  cobra.NoArgs,
			RunE: withDB(opts, func(cmd *cobra.Command, db *sql.DB) error {
				if err := goose.DownContext(cmd.Context(), db, opts.dir); err != nil {
					return fmt.Errorf("roll back migration: %w", err)
				}
				cmd.Println("Migrations rolled back successfully")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			Args:  cobra.NoArgs,
			RunE: withDB(opts, func(cmd *cobra.Command, db *sql.DB) error {
				return goose.StatusContext(cmd.Context(), db, opts.dir)
			}),
		},
		&cobra.Command{
			Use:   "create NAME",
			Short: "Create a new SQL migration",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := goose.Create(nil, opts.dir, args[0], "sql"); err != nil {
					return fmt.Errorf("create migration: %w", err)
				}
				cmd.Printf("Migration created: %s\n", args[0])
				return nil
			},
		},
	)
	return root
}

func withDB(opts *options, fn func(*cobra.Command, *sql.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
			cmd.SetContext(ctx)
		}

		pool, err := pgxpool.New(ctx, opts.dsn)
		if err != nil {
			return fmt.Errorf("connect to %s: %w", config.RedactDSN(opts.dsn), err)
		}
		defer pool.Close()

		if err := goose.SetDialect("postgres"); err != nil {
			return err
		}
		return fn(cmd, stdlib.OpenDBFromPool(pool))
	}
}
