// File: cmd/hud.go
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sablewood/arbor/internal/hud"
	"github.com/sablewood/arbor/internal/observability"
)

var hudAddr string

// hudCmd runs only the websocket tap feed, for wiring an external
// visualizer against a session hosted elsewhere in the same process tree.
var hudCmd = &cobra.Command{
	Use:   "hud",
	Short: "Serve the live websocket tap feed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := observability.GetLogger()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := hudAddr
		if addr == "" {
			addr = cfg.HUD.Addr
		}
		return hud.NewStream(log).Serve(ctx, addr)
	},
}

func init() {
	hudCmd.Flags().StringVar(&hudAddr, "addr", "", "listen address (defaults to hud.addr from config)")
	rootCmd.AddCommand(hudCmd)
}
