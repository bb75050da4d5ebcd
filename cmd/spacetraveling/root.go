package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eringen/spacetraveling"
	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/views"
)

const (
	configName = "spacetraveling"
	envPrefix  = "SPACETRAVELING"
)

// cli holds state shared by the subcommands.
type cli struct {
	cfgFile string
	v       *viper.Viper
	cfg     spacetraveling.SiteConfig
	out     io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	root := &cobra.Command{
		Use:   "spacetraveling",
		Short: "Static post pages for the spacetraveling blog",
		Long: `spacetraveling fetches posts from a Prismic repository, renders one page
per post into the output directory, and serves the result with preview
mode and a publish webhook.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is ./spacetraveling.yaml)")
	root.AddCommand(
		c.newBuildCmd(),
		c.newServeCmd(),
		c.newInitCmd(),
		c.newVersionCmd(),
	)
	return root
}

// defaults lists every config key so environment variables can set keys
// missing from the config file.
var defaults = map[string]any{
	"name":            "spacetraveling",
	"url":             "http://localhost:3000",
	"description":     "",
	"locale":          "pt-BR",
	"timezone":        "UTC",
	"api_endpoint":    "",
	"access_token":    "",
	"output_dir":      "out",
	"manifest_path":   "data/manifest.db",
	"concurrency":     4,
	"fallback":        false,
	"optimize_images": false,
	"sanitize_html":   false,
	"allowed_tags":    []string{},
	"addr":            ":3000",
	"session_secret":  "",
	"webhook_secret":  "",
	"cookie_secure":   false,
	"post_cache_ttl":  5 * time.Minute,
	"log_level":       "info",
}

func (c *cli) loadConfig() error {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if c.cfgFile != "" {
		v.SetConfigFile(c.cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	c.v = v
	return c.decode()
}

// decode unmarshals the current viper settings into c.cfg.
func (c *cli) decode() error {
	var cfg spacetraveling.SiteConfig
	if err := c.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	c.cfg = cfg
	return nil
}

func (c *cli) newApp() *spacetraveling.App {
	var opts []prismic.ClientOption
	if c.cfg.AccessToken != "" {
		opts = append(opts, prismic.WithAccessToken(c.cfg.AccessToken))
	}
	client := prismic.NewClient(c.cfg.APIEndpoint, opts...)
	return spacetraveling.New(c.cfg, client, views.Funcs())
}

func (c *cli) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the spacetraveling version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.out, "spacetraveling %s\n", version)
		},
	}
}
