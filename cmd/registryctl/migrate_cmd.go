package main

import (
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/database"
	"github.com/spf13/cobra"
)

func newMigrateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Create tables and apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := e.connect()
			if err != nil {
				return err
			}
			defer closeDB()
			return database.Migrate(db, e.log)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the applied state of each migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := e.connect()
			if err != nil {
				return err
			}
			defer closeDB()
			return database.MigrationStatus(db)
		},
	})

	return cmd
}
