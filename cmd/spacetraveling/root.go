package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eringen/spacetraveling"
	"github.com/eringen/spacetraveling/content"
	"github.com/eringen/spacetraveling/prismic"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "spacetraveling",
	Short: "spacetraveling - a blog served from Prismic content",
	Long: `spacetraveling serves a blog whose posts are stored in a Prismic
repository. Pages are built ahead of time or on first request and rebuilt in
the background when they go stale.

Configuration is read from ./config.yaml (or --config) and from
SPACETRAVELING_* environment variables. PRISMIC_API_ENDPOINT and
PRISMIC_ACCESS_TOKEN are honored as well.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the spacetraveling version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "spacetraveling %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.AddCommand(serveCmd, buildCmd, postsCmd, versionCmd)
}

func loadConfig() (*spacetraveling.ConfigLoader, spacetraveling.SiteConfig, error) {
	loader := spacetraveling.NewConfigLoader(cfgFile)
	cfg, err := loader.Load()
	if err != nil {
		return nil, cfg, err
	}
	if cfg.PrismicEndpoint == "" {
		return nil, cfg, fmt.Errorf("prismic endpoint is not configured (set PRISMIC_API_ENDPOINT)")
	}
	return loader, cfg, nil
}

func newRepository(cfg spacetraveling.SiteConfig) (*content.Repository, error) {
	client, err := prismic.New(cfg.PrismicEndpoint, prismic.WithAccessToken(cfg.PrismicAccessToken))
	if err != nil {
		return nil, err
	}
	return content.NewRepository(client), nil
}
