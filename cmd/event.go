package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/grievance-portal/internal/store"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "events",
	Short: "Event commands",
	Long:  `Inspect store change notifications.`,
}

var watchEventCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print remote store change notifications",
	Long:  `Subscribe to the remote backend change channel and print every notification until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		w, ok := store.WatcherOf(app.Store)
		if !ok {
			return fmt.Errorf("store backend %q does not publish change notifications", app.Config.Store.Backend)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app.Logger.Info("watching store changes", "channel", app.Config.Store.Remote.Channel)
		enc := json.NewEncoder(cmd.OutOrStdout())
		return w.Watch(ctx, func(c store.Change) {
			if err := enc.Encode(c); err != nil {
				app.Logger.Warn("failed to print change", "error", err)
			}
		})
	},
}

func init() {
	eventCmd.AddCommand(watchEventCmd)
}
