package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/hexblog/hexblog/internal/web/components"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var listPostsCmdFlags struct {
	Page int
}

var listPostsCmd = &cobra.Command{
	Use:   "list-posts",
	Short: "List posts including drafts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		page, err := a.blog.ListPosts(cmd.Context(), listPostsCmdFlags.Page)
		if err != nil {
			return fmt.Errorf("failed to list posts: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSLUG\tSTATUS\tPUBLISHED\tTITLE")
		for _, p := range page.Posts {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				p.ID, p.Slug,
				lo.Ternary(p.IsPublished, "published", "draft"),
				lo.Ternary(p.PublishedAt != nil, components.FormatDate(p.PublishedAt), "-"),
				p.Title,
			)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\npage %d of %d, %d posts\n", page.Number, page.TotalPages(), page.Total)
		return nil
	},
}

func init() {
	listPostsCmd.Flags().IntVar(&listPostsCmdFlags.Page, "page", 1, "Page to show")
	rootCmd.AddCommand(listPostsCmd)
}
