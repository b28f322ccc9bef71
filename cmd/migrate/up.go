package main

import (
	"github.com/spf13/cobra"
	"github.com/weiwangfds/notebox/internal/database"
	"github.com/weiwangfds/notebox/internal/logger"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Create or update tables and indexes",
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
		logger.Info("migration completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(upCmd)
}
