package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"whisper-scribe/internal/api/v1/services"
	"whisper-scribe/internal/app/api"
	openaiclient "whisper-scribe/internal/app/api/openai"
	"whisper-scribe/internal/app/api/openai/whisper"
	"whisper-scribe/internal/app/audio"
	"whisper-scribe/internal/app/metrics"
	"whisper-scribe/internal/app/repository"
	"whisper-scribe/internal/app/repository/pg"
	"whisper-scribe/internal/app/repository/sqlite"
	"whisper-scribe/internal/app/storage"
	"whisper-scribe/internal/app/transcription"
	"whisper-scribe/internal/config"
)

// ProvideRegistry returns a registry carrying the Go runtime and process
// collectors next to the application metrics.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics registers the application collectors on reg.
func ProvideMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.NewMetrics(reg)
}

func provideRunner() audio.CommandRunner {
	return audio.ExecRunner{}
}

func provideProber(cfg *config.Config, runner audio.CommandRunner) *audio.Prober {
	return audio.NewProber(cfg.Audio.FFprobePath, runner)
}

func provideSplitter(cfg *config.Config, runner audio.CommandRunner, logger *zap.Logger) *audio.Splitter {
	return audio.NewSplitter(cfg.Audio.FFmpegPath, runner,
		audio.WithScratchRoot(cfg.Audio.ScratchRoot),
		audio.WithSplitterLogger(logger),
	)
}

func provideOpenAIClient(cfg *config.Config) (*openai.Client, error) {
	return openaiclient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, nil)
}

// provideTranscriber with openai's remote service, must set environment variable OPENAI_API_KEY
func provideTranscriber(client *openai.Client, cfg *config.Config, logger *zap.Logger) api.Transcriber {
	return whisper.NewRemoteTranscriber(client,
		whisper.WithModel(cfg.OpenAI.Model),
		whisper.WithLanguage(cfg.OpenAI.Language),
		whisper.WithTimeout(cfg.OpenAI.RequestTimeout),
		whisper.WithLogger(logger),
	)
}

func provideLimits(cfg *config.Config) transcription.Limits {
	return transcription.Limits{
		FileLimitBytes:   cfg.Audio.FileLimitBytes,
		ChunkBudgetBytes: cfg.Audio.ChunkBudgetBytes,
		RatePerMinute:    cfg.Audio.RatePerMinute,
	}
}

// ProvideHistory opens the configured history store. It returns a nil DAO
// when no driver is configured.
func ProvideHistory(ctx context.Context, cfg *config.Config) (repository.TranscriptionDAO, func(), error) {
	var (
		dao repository.TranscriptionDAO
		err error
	)
	switch cfg.History.Driver {
	case "":
		return nil, func() {}, nil
	case repository.DriverSQLite:
		dao, err = sqlite.NewSQLiteDB(ctx, cfg.History.DSN)
	case repository.DriverPostgres:
		dao, err = pg.NewPostgresDB(ctx, cfg.History.DSN)
	default:
		return nil, nil, fmt.Errorf("unsupported history driver %q", cfg.History.Driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history store: %w", err)
	}
	return dao, func() { _ = dao.Close() }, nil
}

func provideArtifactStore(ctx context.Context, cfg *config.Config) (storage.ArtifactStore, error) {
	if !cfg.StorageEnabled() {
		return nil, nil
	}
	store, err := storage.NewMinioArtifactStore(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to connect artifact store: %w", err)
	}
	return store, nil
}

func provideJobServiceConfig(
	cfg *config.Config,
	history repository.TranscriptionDAO,
	artifacts storage.ArtifactStore,
	logger *zap.Logger,
	m *metrics.Metrics,
) services.JobServiceConfig {
	return services.JobServiceConfig{
		UploadDir:      cfg.Audio.ScratchRoot,
		MaxUploadBytes: cfg.Audio.MaxUploadBytes,
		History:        history,
		Artifacts:      artifacts,
		Logger:         logger,
		Metrics:        m,
	}
}
