package main

import (
	"github.com/spf13/cobra"
	"github.com/weiwangfds/notebox/internal/database"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Migrate and insert sample notes and tags",
	Long:  `seed is idempotent: running it twice does not duplicate tags, notes or links.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(db)

		if err := database.MigrateNotesTables(db); err != nil {
			return err
		}
		return database.SeedNotesData(db)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
