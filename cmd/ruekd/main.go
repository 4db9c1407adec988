// Command ruekd wires internal/config, internal/storepg and
// internal/service together, the way cmd/bd wires internal/config and
// internal/rpc. It is a demonstration of the wiring named in spec.md §6,
// not a transport server: no RPC framing (HTTP/gRPC) is implemented here.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "ruekd",
	Short: "ruek relationship-based authorization daemon",
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer rootCancel()

	if err := rootCmd.ExecuteContext(rootCtx); err != nil {
		fmt.Fprintln(os.Stderr, "ruekd:", err)
		os.Exit(1)
	}
}
