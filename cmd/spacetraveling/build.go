package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eringen/spacetraveling"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Render the listing and newest posts into the page store",
	Long: `build renders the listing page and the newest posts and writes them to
the page store in a single transaction. A later serve picks them up. If any
page fails nothing is written and the command exits non-zero.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadConfig()
		if err != nil {
			return err
		}
		repo, err := newRepository(cfg)
		if err != nil {
			return err
		}

		gen, err := spacetraveling.NewGenerator(repo, spacetraveling.DefaultViews(), cfg)
		if err != nil {
			return err
		}
		pages, err := gen.Prebuild(cmd.Context())
		if err != nil {
			return err
		}

		store, err := spacetraveling.NewStore(cfg.PageStorePath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SavePages(cmd.Context(), pages); err != nil {
			return err
		}

		for _, p := range pages {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s (%d bytes)\n", p.Key, len(p.Body))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nWrote %d pages to %s\n", len(pages), cfg.PageStorePath)
		return nil
	},
}
