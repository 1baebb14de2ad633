//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"whisper-scribe/internal/api/v1/services"
	"whisper-scribe/internal/app/audio"
	"whisper-scribe/internal/app/metrics"
	"whisper-scribe/internal/app/transcription"
	"whisper-scribe/internal/config"
)

var orchestratorSet = wire.NewSet(
	provideRunner,
	provideProber,
	provideSplitter,
	provideOpenAIClient,
	provideTranscriber,
	provideLimits,
	transcription.NewOrchestrator,
	wire.Bind(new(transcription.Prober), new(*audio.Prober)),
	wire.Bind(new(transcription.Splitter), new(*audio.Splitter)),
)

func InitializeOrchestrator(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*transcription.Orchestrator, error) {
	wire.Build(orchestratorSet)
	return &transcription.Orchestrator{}, nil
}

func InitializeJobService(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*services.JobService, func(), error) {
	wire.Build(
		orchestratorSet,
		ProvideHistory,
		provideArtifactStore,
		provideJobServiceConfig,
		services.NewJobService,
		wire.Bind(new(services.Pipeline), new(*transcription.Orchestrator)),
	)
	return &services.JobService{}, nil, nil
}
