package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"whisper-scribe/cmd/scribe/cmd/shared"
	"whisper-scribe/internal/app"
	"whisper-scribe/internal/app/audio"
	apperrors "whisper-scribe/internal/app/errors"
	"whisper-scribe/internal/app/model"
	"whisper-scribe/internal/app/progress"
	"whisper-scribe/internal/app/report"
	"whisper-scribe/internal/app/repository"
	"whisper-scribe/internal/app/transcription"
	"whisper-scribe/internal/app/util/files"
)

var (
	outputDir     string
	forceProgress bool
)

func init() {
	Cmd.Flags().StringVarP(&outputDir, "output", "o", ".",
		"Directory that receives transcription.pdf and transcription.txt")
	Cmd.Flags().BoolVar(&forceProgress, "progress", false,
		"Draw the progress bar even when stderr is not a terminal")
}

// Cmd represents the transcribe command
var Cmd = &cobra.Command{
	Use:   "transcribe <audio-file>",
	Short: "Transcribe an audio file to PDF and plain text",
	Long: `Transcribe an audio file to PDF and plain text

- Supported formats: mp3, mp4, mpeg, mpga, m4a, wav, webm
- Files over the upload limit are split and sent one chunk at a time
- Ctrl-C stops after the chunk in flight; nothing is written for a cancelled run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
	},
}

func run(ctx context.Context, stdout, stderr io.Writer, path string) error {
	cfg, logger := shared.Config(), shared.Logger()

	if !files.IsSupportedAudio(path) {
		return fmt.Errorf("unsupported file type %q, expected one of %v", filepath.Ext(path), files.SupportedExtensions)
	}

	orch, err := app.InitializeOrchestrator(cfg, logger, nil)
	if err != nil {
		return err
	}
	history, closeHistory, err := app.ProvideHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeHistory()

	bars := progress.NewManager(progress.Config{Enabled: progress.ShouldShow(forceProgress), Writer: stderr})
	bar := bars.NewBar(filepath.Base(path))

	entry := &model.Transcription{
		JobID:     uuid.NewString(),
		FileName:  filepath.Base(path),
		CreatedAt: time.Now().UTC(),
	}
	result, err := orch.Transcribe(ctx, path,
		transcription.WithProgress(bar.Update),
		transcription.WithEstimate(func(_ audio.Source, est audio.CostEstimate) {
			fmt.Fprintf(stderr, "Duration: %.1f min, estimated cost: $%.4f\n", est.DurationMinutes(), est.CostUSD)
		}),
	)
	if err != nil {
		bar.Abort()
	}
	bars.Wait()

	if result != nil {
		entry.DurationSeconds = result.DurationSeconds
		entry.CostUSD = result.CostUSD
		entry.Chunks = result.Chunks
	}

	switch {
	case errors.Is(err, apperrors.ErrCancelled):
		entry.Status = string(transcription.StatusCancelled)
		entry.ErrorMessage = err.Error()
		record(history, entry, logger)
		fmt.Fprintln(stderr, "Transcription cancelled, no output written")
		return err
	case err != nil:
		entry.Status = string(transcription.StatusFailed)
		entry.ErrorMessage = err.Error()
		record(history, entry, logger)
		return err
	}

	stats := report.ComputeStats(result.Text, result.DurationSeconds, result.CostUSD)
	entry.Status = string(transcription.StatusCompleted)
	entry.Words = stats.Words
	record(history, entry, logger)

	pdf, err := report.ToPDF(result.Text)
	if err != nil {
		return err
	}
	pdfPath, err := files.WriteFile(outputDir, "transcription.pdf", pdf)
	if err != nil {
		return err
	}
	txtPath, err := files.WriteFile(outputDir, "transcription.txt", report.ToText(result.Text))
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s\n\nWrote %s\nWrote %s\n", stats.Summary(), pdfPath, txtPath)
	return nil
}

func record(history repository.TranscriptionDAO, entry *model.Transcription, logger *zap.Logger) {
	if history == nil {
		return
	}
	if _, err := history.Record(context.Background(), entry); err != nil {
		logger.Warn("failed to record history", zap.String("file", entry.FileName), zap.Error(err))
	}
}
