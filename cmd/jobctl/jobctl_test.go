package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "jobctl version: unknown\n", out.String())
}

func TestIngestCommand_RequiresFile(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"ingest"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestReadUpload(t *testing.T) {
	dir := t.TempDir()

	pdfPath := filepath.Join(dir, "posting.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n<<>>\nendobj\n"), 0o600))

	textPath := filepath.Join(dir, "notes.pdf")
	require.NoError(t, os.WriteFile(textPath, []byte("plain text renamed to pdf"), 0o600))

	tests := []struct {
		name            string
		path            string
		model           string
		wantContentType string
		wantErr         bool
	}{
		{name: "pdf", path: pdfPath, model: "gpt-4", wantContentType: "application/pdf"},
		{name: "renamed text", path: textPath, wantContentType: "text/plain; charset=utf-8"},
		{name: "missing file", path: filepath.Join(dir, "missing.pdf"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upload, err := readUpload(tt.path, tt.model)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "failed to read")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, filepath.Base(tt.path), upload.Filename)
			assert.Equal(t, tt.wantContentType, upload.ContentType)
			assert.Equal(t, int64(len(upload.Data)), upload.Size)
			assert.Equal(t, tt.model, upload.ModelHint)
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("JOBCTL_CONFIG_PATH", "")
	cfgFile = ""
	assert.Equal(t, "configs/api-service/config.yaml", configPath())

	t.Setenv("JOBCTL_CONFIG_PATH", "/etc/jobboard.yaml")
	assert.Equal(t, "/etc/jobboard.yaml", configPath())

	cfgFile = "local.yaml"
	t.Cleanup(func() { cfgFile = "" })
	assert.Equal(t, "local.yaml", configPath())
}

type recordingPublisher struct {
	events []events.JobEvent
	failOn string
}

func (p *recordingPublisher) Publish(_ context.Context, event events.JobEvent) error {
	if event.JobID == p.failOn {
		return errors.New("channel closed")
	}
	p.events = append(p.events, event)
	return nil
}

func TestAnnounceCreated(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jobs := []domain.JobPosting{{ID: "job-1"}, {ID: "job-2"}, {ID: "job-3"}}

	tests := []struct {
		name          string
		source        events.Source
		details       map[string]string
		failOn        string
		wantPublished int
		wantJobIDs    []string
	}{
		{
			name:          "seeded postings",
			source:        events.SourceSeed,
			wantPublished: 3,
			wantJobIDs:    []string{"job-1", "job-2", "job-3"},
		},
		{
			name:          "uploaded posting",
			source:        events.SourceUpload,
			details:       map[string]string{"filename": "posting.pdf", "model_hint": "gpt-4"},
			wantPublished: 3,
			wantJobIDs:    []string{"job-1", "job-2", "job-3"},
		},
		{
			name:          "publish failure skips one posting",
			source:        events.SourceSeed,
			failOn:        "job-2",
			wantPublished: 2,
			wantJobIDs:    []string{"job-1", "job-3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{failOn: tt.failOn}

			got := announceCreated(context.Background(), pub, logger, tt.source, tt.details, jobs...)
			assert.Equal(t, tt.wantPublished, got)

			var ids []string
			for _, event := range pub.events {
				ids = append(ids, event.JobID)
				assert.Equal(t, events.TypeJobCreated, event.Type)
				assert.Equal(t, tt.source, event.Source)
				assert.Equal(t, tt.details, event.Details)
				assert.NotEmpty(t, event.EventID)
			}
			assert.Equal(t, tt.wantJobIDs, ids)
		})
	}
}

func TestAnnounceCreated_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pub := &recordingPublisher{}
	got := announceCreated(ctx, pub, slog.New(slog.NewTextHandler(io.Discard, nil)), events.SourceUpload, nil, domain.JobPosting{ID: "job-1"})
	assert.Equal(t, 1, got)
	assert.Len(t, pub.events, 1)
}
