package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func (c *cli) newServeCmd() *cobra.Command {
	var buildFirst bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generated site with preview mode and the publish webhook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app := c.newApp()
			defer app.Close()

			if buildFirst {
				if _, err := app.Build(ctx); err != nil {
					return err
				}
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := app.Shutdown(shutdownCtx); err != nil {
					app.Echo.Logger.Errorf("shutdown: %v", err)
				}
			}()
			return app.Start()
		},
	}
	cmd.Flags().BoolVar(&buildFirst, "build", false, "run a full build before serving")
	return cmd
}
