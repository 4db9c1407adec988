package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ruek-io/ruek/internal/config"
	"github.com/ruek-io/ruek/internal/service"
	"github.com/ruek-io/ruek/internal/storepg"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to storage and hold the service open until signalled",
	Long: `serve loads configuration from flags/environment (RUEK_DATABASE_URL,
RUEK_CACHE_ADDR, RUEK_OP_TIMEOUT, RUEK_CHECK_COST_LIMIT), opens the
Postgres storage adapter, and constructs the internal/service.Service used
by every RPC endpoint named in spec.md §6. It does not itself speak
HTTP/gRPC; a transport layer would sit in front of the constructed
Service.`,
	RunE: runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.String("database-url", "", "Postgres connection string (env RUEK_DATABASE_URL)")
	flags.String("cache-addr", "", "cache backend address (env RUEK_CACHE_ADDR)")
	flags.Duration("op-timeout", 0, "per-operation timeout (env RUEK_OP_TIMEOUT)")
	flags.Int("check-cost-limit", 0, "default check cost limit (env RUEK_CHECK_COST_LIMIT)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := config.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := storepg.Open(ctx, cfg.DatabaseURL, storepg.WithAcquireTimeout(cfg.OpTimeout))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer pool.Close()

	svc := service.New(
		storepg.PrincipalStore{Pool: pool},
		storepg.RecordStore{Pool: pool},
		storepg.TupleStore{Pool: pool},
		service.Config{CheckCostLimit: cfg.CheckCostLimit},
	)
	_ = svc // held open for an RPC layer to front; ruekd itself demonstrates wiring only

	fmt.Fprintf(cmd.OutOrStdout(), "ruekd: connected to storage, service ready (cost limit %d)\n", cfg.CheckCostLimit)

	<-ctx.Done()
	return nil
}
