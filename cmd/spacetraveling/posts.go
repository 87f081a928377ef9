package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eringen/spacetraveling/datefmt"
	"github.com/eringen/spacetraveling/pagination"
)

var (
	postsAll   bool
	postsPages int
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List published posts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadConfig()
		if err != nil {
			return err
		}
		repo, err := newRepository(cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		first, err := repo.ListPosts(ctx, "", cfg.PageSize)
		if err != nil {
			return err
		}
		ctrl := pagination.NewController(repo, first)
		more := postsPages - 1
		if postsAll {
			more = 0
		}
		if postsAll || more > 0 {
			if err := ctrl.Walk(ctx, more); err != nil {
				return err
			}
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tSLUG\tTITLE\tAUTHOR")
		for _, p := range ctrl.Posts() {
			date, err := datefmt.Format(p.FirstPublicationDate)
			if err != nil {
				date = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", date, p.UID, p.Title, p.Author)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if ctrl.HasMore() {
			fmt.Fprintln(cmd.OutOrStdout(), "\nmore posts available, use --all")
		}
		return nil
	},
}

func init() {
	postsCmd.Flags().BoolVar(&postsAll, "all", false, "walk every listing page")
	postsCmd.Flags().IntVar(&postsPages, "pages", 1, "number of listing pages to show")
}
