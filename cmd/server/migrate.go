package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jengzang/salesmap-backend-go/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending sqlite migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Open(database.Config{Path: cfg.Database.Path})
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := database.NewMigrationManager(db).RunMigrations()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s) to %s\n", n, cfg.Database.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
