package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cuongbtq/jobboard/internal/api/dto"
	"github.com/cuongbtq/jobboard/internal/bootstrap"
	"github.com/cuongbtq/jobboard/internal/events"
	"github.com/cuongbtq/jobboard/internal/ingest"
	"github.com/cuongbtq/jobboard/internal/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.pdf>",
	Short: "Run the upload pipeline against a local PDF and print the stored posting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := cmd.Flags().GetString("model")
		if err != nil {
			return err
		}

		upload, err := readUpload(args[0], model)
		if err != nil {
			return err
		}

		rt, err := connect()
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := rt.cfg.ValidateIngestion(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		store := storage.NewStorage(rt.db.GetDB(), rt.logger.Logger)
		pipeline, err := bootstrap.BuildPipeline(cmd.Context(), rt.cfg, store, rt.logger.Logger)
		if err != nil {
			return err
		}

		job, err := pipeline.Run(cmd.Context(), upload)
		if err != nil {
			return err
		}

		announceCreated(cmd.Context(), rt.openPublisher(), rt.logger.Logger, events.SourceUpload, map[string]string{
			"filename":   upload.Filename,
			"model_hint": upload.ModelHint,
		}, *job)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(dto.NewJobDTO(job))
	},
}

// readUpload loads a local file the way the upload endpoint receives one
func readUpload(path, model string) (ingest.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ingest.Upload{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return ingest.Upload{
		Filename:    filepath.Base(path),
		ContentType: mimetype.Detect(data).String(),
		Size:        int64(len(data)),
		Data:        data,
		ModelHint:   model,
	}, nil
}

func init() {
	ingestCmd.Flags().String("model", "", "model tier hint, gpt-4 selects the quality tier")
	rootCmd.AddCommand(ingestCmd)
}
