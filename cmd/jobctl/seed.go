package main

import (
	"fmt"

	"github.com/cuongbtq/jobboard/internal/events"
	"github.com/cuongbtq/jobboard/internal/storage"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the sample job postings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reset, err := cmd.Flags().GetBool("reset")
		if err != nil {
			return err
		}

		rt, err := connect()
		if err != nil {
			return err
		}
		defer rt.Close()

		jobs, err := storage.NewStorage(rt.db.GetDB(), rt.logger.Logger).Seed(cmd.Context(), reset)
		if err != nil {
			return err
		}

		published := announceCreated(cmd.Context(), rt.openPublisher(), rt.logger.Logger, events.SourceSeed, nil, jobs...)

		out := cmd.OutOrStdout()
		for _, job := range jobs {
			fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", job.ID, job.Status, job.Company, job.Title)
		}
		fmt.Fprintf(out, "seeded %d job posting(s), %d event(s) published\n", len(jobs), published)
		return nil
	},
}

func init() {
	seedCmd.Flags().Bool("reset", false, "delete every existing posting before seeding")
	rootCmd.AddCommand(seedCmd)
}
