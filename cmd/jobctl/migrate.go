package main

import (
	"fmt"
	"log/slog"

	"github.com/cuongbtq/jobboard/internal/storage"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := connect()
		if err != nil {
			return err
		}
		defer rt.Close()

		applied, err := storage.NewMigrator(rt.db.GetDB(), rt.logger.Logger).Up(cmd.Context())
		if err != nil {
			return err
		}

		rt.logger.Info("Migrations complete", slog.Int("applied", applied))
		fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := connect()
		if err != nil {
			return err
		}
		defer rt.Close()

		reverted, err := storage.NewMigrator(rt.db.GetDB(), rt.logger.Logger).Down(cmd.Context())
		if err != nil {
			return err
		}

		if reverted == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "nothing to roll back")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d: %s\n", reverted.Version, reverted.Description)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}
