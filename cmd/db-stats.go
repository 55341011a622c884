package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var dbStatsCmd = &cobra.Command{
	Use:   "db-stats",
	Short: "Show database statistics",
	Long:  `Display row counts for accounts, posts, comments and backup codes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close() //nolint: errcheck

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get database stats: %w", err)
		}

		fmt.Println("Database Statistics:")
		fmt.Printf("Users: %s (%s admins, %s awaiting approval)\n",
			humanize.Comma(stats.Users), humanize.Comma(stats.Admins), humanize.Comma(stats.Pending))
		fmt.Printf("Posts: %s (%s drafts)\n", humanize.Comma(stats.Posts), humanize.Comma(stats.Drafts))
		fmt.Printf("Comments: %s\n", humanize.Comma(stats.Comments))
		fmt.Printf("Unused Backup Codes: %s\n", humanize.Comma(stats.BackupCodes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbStatsCmd)
}
