package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ruek-io/ruek/internal/config"
	"github.com/ruek-io/ruek/internal/storepg"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the principals/records/tuples schema to RUEK_DATABASE_URL",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().String("database-url", "", "Postgres connection string (env RUEK_DATABASE_URL)")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	v := config.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := storepg.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer pool.Close()

	if err := pool.Exec(ctx, storepg.SchemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "ruekd: schema applied")
	return nil
}
