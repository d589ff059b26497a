package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gecko-watch/internal/monitor"
)

func newWatchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch price triggers",
		Long: `Run the trigger monitor in the foreground. Every interval the monitor
fetches live prices for all stored triggers, fires a notification for
each trigger whose target has been crossed, and removes it. Stop with
Ctrl-C.`,
		Example: `  gecko-watch watch
  gecko-watch watch --interval 30s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireCache(app, output); err != nil {
				return err
			}

			interval, _ := cmd.Flags().GetDuration("interval")
			if interval <= 0 {
				interval = app.Config.Monitor.Interval
			}

			m := monitor.New(app.Cache, app.Notifier, interval, app.Logger)
			m.Start(cmd.Context())

			output.Info("Watching triggers every %s. Press Ctrl-C to stop.", interval)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			sig := <-sigCh

			app.Logger.Info().Str("signal", sig.String()).Msg("Shutting down")
			output.Println()
			output.Info("Stopping...")

			done := make(chan struct{})
			go func() {
				m.Stop()
				close(done)
			}()

			select {
			case <-done:
				output.Success("Stopped cleanly")
			case <-time.After(30 * time.Second):
				output.Warning("Shutdown timed out, exiting anyway")
			}
			return nil
		},
	}
	cmd.Flags().Duration("interval", 0, "sweep interval (default from config)")

	return cmd
}
