package main

import (
	"context"
	"fmt"
	"os"

	"hamarabooks/internal/catalog"
	"hamarabooks/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func main() {
	config.LoadEnvFiles()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		dsn    string
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Load the book catalog into Postgres",
		Long:         "Upserts books by id. Without --file the bundled catalog is used.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			books, err := loadBooks(file)
			if err != nil {
				return err
			}
			if dryRun {
				cmd.Printf("%d books parsed, nothing written\n", len(books))
				return nil
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			pool, err := pgxpool.New(ctx, dsn)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", config.RedactDSN(dsn), err)
			}
			defer pool.Close()

			repo := catalog.NewPostgresRepository(pool)
			if err := repo.Upsert(ctx, books); err != nil {
				return err
			}
			stored, err := repo.All(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("Upserted %d books, %d in catalog\n", len(books), len(stored))
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", config.DatabaseDSN(), "Postgres connection string (DB_DSN)")
	cmd.Flags().StringVar(&file, "file", "", "YAML file with a top-level books list")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and validate only")
	return cmd
}

func loadBooks(file string) ([]catalog.Book, error) {
	if file == "" {
		return catalog.SeedBooks()
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return catalog.DecodeBooks(data)
}
