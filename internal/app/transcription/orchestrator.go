package transcription

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"whisper-scribe/internal/app/api"
	"whisper-scribe/internal/app/audio"
	apperrors "whisper-scribe/internal/app/errors"
	"whisper-scribe/internal/app/logging"
	"whisper-scribe/internal/app/metrics"
)

// Status is the terminal outcome of a transcription request.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Prober reads audio metadata.
type Prober interface {
	Probe(ctx context.Context, path string) (audio.Source, error)
}

// Splitter cuts a source into chunks under a byte budget.
type Splitter interface {
	Split(ctx context.Context, src audio.Source, maxBytes int64) (*audio.ChunkSet, error)
}

// Limits holds the size thresholds and pricing used by the orchestrator.
type Limits struct {
	// FileLimitBytes is the largest file sent without splitting.
	FileLimitBytes int64
	// ChunkBudgetBytes is the per-chunk target once splitting is needed.
	ChunkBudgetBytes int64
	RatePerMinute    float64
}

// Result is the outcome of one transcription request.
type Result struct {
	SourcePath      string   `json:"source_path"`
	Fragments       []string `json:"fragments,omitempty"`
	Text            string   `json:"text"`
	DurationSeconds float64  `json:"duration_seconds"`
	CostUSD         float64  `json:"cost_usd"`
	Chunks          int      `json:"chunks"`
	Cancelled       bool     `json:"cancelled"`
}

// ProgressFunc is called with the number of finished chunks out of total.
type ProgressFunc func(done, total int)

// EstimateFunc is called once the source has been probed, before any
// splitting or remote call.
type EstimateFunc func(src audio.Source, estimate audio.CostEstimate)

type runOptions struct {
	onProgress ProgressFunc
	onEstimate EstimateFunc
}

// RunOption configures a single Transcribe call.
type RunOption func(*runOptions)

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) RunOption {
	return func(o *runOptions) {
		o.onProgress = fn
	}
}

// WithEstimate registers a callback receiving the duration and cost estimate.
func WithEstimate(fn EstimateFunc) RunOption {
	return func(o *runOptions) {
		o.onEstimate = fn
	}
}

// Orchestrator drives one audio file through probe, split and sequential
// remote transcription.
type Orchestrator struct {
	prober      Prober
	splitter    Splitter
	transcriber api.Transcriber
	limits      Limits
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

func NewOrchestrator(prober Prober, splitter Splitter, transcriber api.Transcriber, limits Limits, logger *zap.Logger, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		prober:      prober,
		splitter:    splitter,
		transcriber: transcriber,
		limits:      limits,
		logger:      logging.OrNop(logger),
		metrics:     m,
	}
}

// Estimate probes path and prices it without transcribing.
func (o *Orchestrator) Estimate(ctx context.Context, path string) (audio.Source, audio.CostEstimate, error) {
	src, err := o.prober.Probe(ctx, path)
	if err != nil {
		return audio.Source{}, audio.CostEstimate{}, err
	}
	return src, audio.Estimate(src, o.limits.RatePerMinute), nil
}

// Transcribe converts the audio at path to text.
//
// Chunks are submitted strictly in order, one at a time. Cancellation of ctx
// is observed only between chunks: a call already in flight is allowed to
// finish, after which Transcribe returns a Result with Cancelled set together
// with ErrCancelled. Any remote failure aborts the request with no partial
// text. Scratch files are removed on every return path.
func (o *Orchestrator) Transcribe(ctx context.Context, path string, opts ...RunOption) (result *Result, err error) {
	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}

	started := time.Now()
	defer func() {
		status := StatusCompleted
		switch {
		case errors.Is(err, apperrors.ErrCancelled):
			status = StatusCancelled
		case err != nil:
			status = StatusFailed
		}
		o.metrics.RecordFinish(string(status))
		o.logger.Info("transcription finished",
			zap.String("file", path),
			zap.String("status", string(status)),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
	}()

	// Probing and splitting run to completion; cancellation is observed only
	// at the chunk checkpoint so a cancelled result still carries its estimate.
	detached := context.WithoutCancel(ctx)
	src, estimate, err := o.Estimate(detached, path)
	if err != nil {
		return nil, err
	}
	if ro.onEstimate != nil {
		ro.onEstimate(src, estimate)
	}
	o.metrics.RecordStart(estimate.DurationSeconds, estimate.CostUSD)

	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to stat %s", path)
	}

	chunks := []audio.Chunk{{Index: 0, StartMs: 0, EndMs: src.DurationMs, Path: path}}
	if info.Size() > o.limits.FileLimitBytes {
		o.logger.Info("file exceeds upload limit, splitting",
			zap.String("file", path),
			zap.Int64("size_bytes", info.Size()),
			zap.Int64("limit_bytes", o.limits.FileLimitBytes),
		)

		splitStart := time.Now()
		set, err := o.splitter.Split(detached, src, o.limits.ChunkBudgetBytes)
		if err != nil {
			return nil, err
		}
		defer func() {
			if cerr := set.Close(); cerr != nil {
				o.logger.Warn("failed to remove scratch dir", zap.String("dir", set.Dir), zap.Error(cerr))
			}
		}()
		o.metrics.RecordSplit(time.Since(splitStart).Seconds())
		chunks = set.Chunks
	}

	result = &Result{
		SourcePath:      path,
		DurationSeconds: estimate.DurationSeconds,
		CostUSD:         estimate.CostUSD,
		Chunks:          len(chunks),
	}

	total := len(chunks)
	progress := func(done int) {
		if ro.onProgress != nil {
			ro.onProgress(done, total)
		}
	}
	progress(0)

	fragments := make([]string, 0, total)
	for i, chunk := range chunks {
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.Cancelled = true
			return result, apperrors.WithKind(apperrors.ErrCancelled, ctxErr, "stopped before chunk %d of %d", i+1, total)
		}

		callStart := time.Now()
		text, err := o.transcriber.Transcript(ctx, chunk.Path)
		o.metrics.RecordChunk(time.Since(callStart).Seconds(), err)
		if err != nil {
			if !errors.Is(err, apperrors.ErrRemoteTranscription) {
				err = apperrors.WithKind(apperrors.ErrRemoteTranscription, err, "chunk %d of %d", i+1, total)
			}
			return nil, err
		}

		o.logger.Debug("chunk transcribed",
			zap.Stringer("chunk", chunk),
			zap.Int("chars", len(text)),
		)
		fragments = append(fragments, text)
		progress(i + 1)
	}

	result.Fragments = fragments
	result.Text = strings.Join(fragments, " ")
	return result, nil
}
