package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/weiwangfds/notebox/internal/database"
	"github.com/weiwangfds/notebox/internal/logger"
)

var force bool

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Drop all notebox tables",
	Long:  `down permanently drops the note_tags, tags and notes tables. Requires --force.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !force {
			return fmt.Errorf("refusing to drop tables without --force")
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(db)

		if err := database.DropNotesTables(db); err != nil {
			return err
		}
		logger.Warn("all notebox tables dropped")
		return nil
	},
}

func init() {
	downCmd.Flags().BoolVar(&force, "force", false, "confirm dropping tables")
	rootCmd.AddCommand(downCmd)
}
