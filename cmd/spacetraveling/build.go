package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func (c *cli) newBuildCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate every post page into the output directory",
		Long: `The build command enumerates every post in the repository, renders one
page per post into <output_dir>/post/<slug>/index.html, removes pages of
deleted posts and writes sitemap.xml, feed.xml and 404.html. Pages whose
markup did not change are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := c.build(ctx); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			if c.v.ConfigFileUsed() == "" {
				return errors.New("--watch needs a config file")
			}

			c.v.OnConfigChange(func(e fsnotify.Event) {
				if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
					return
				}
				fmt.Fprintf(c.out, "%s changed, rebuilding\n", e.Name)
				if err := c.decode(); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
					return
				}
				if err := c.build(ctx); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				}
			})
			c.v.WatchConfig()
			fmt.Fprintf(c.out, "Watching %s\n", c.v.ConfigFileUsed())
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "rebuild whenever the config file changes")
	return cmd
}

func (c *cli) build(ctx context.Context) error {
	app := c.newApp()
	defer app.Close()

	report, err := app.Build(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Built %d pages (%d written, %d unchanged, %d pruned) in %s\n",
		report.Pages, report.Written, report.Unchanged, report.Pruned, report.Duration)
	return nil
}
