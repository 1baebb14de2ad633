package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "whisper-scribe/internal/app/errors"
	"whisper-scribe/internal/app/logging"
)

const (
	// safetyMargin leaves room for container overhead and bitrate estimation error.
	safetyMargin = 0.95

	// shrinkFactor is applied to a window whose encoded file overshot the budget.
	shrinkFactor = 0.9

	maxExportAttempts = 3

	scratchPrefix = "audio_chunks"
)

// Chunk is one independently encoded, time-bounded slice of a source.
type Chunk struct {
	Index   int    `json:"index"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
	Path    string `json:"path"`
}

// DurationMs returns the length of this chunk.
func (c Chunk) DurationMs() int64 {
	return c.EndMs - c.StartMs
}

// String returns a human-readable representation for logging.
func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d: %dms-%dms", c.Index, c.StartMs, c.EndMs)
}

// Window is a [StartMs, EndMs) span of the source timeline.
type Window struct {
	StartMs int64
	EndMs   int64
}

// ChunkSet owns the scratch directory holding a split's chunk files.
type ChunkSet struct {
	Dir    string
	Chunks []Chunk
	closed bool
}

// Close removes the scratch directory. Safe to call more than once and on nil.
func (cs *ChunkSet) Close() error {
	if cs == nil || cs.closed || cs.Dir == "" {
		return nil
	}
	cs.closed = true
	return os.RemoveAll(cs.Dir)
}

// MaxChunkDuration returns the window length, in milliseconds, expected to
// encode under maxBytes: (maxBytes / bytesPerMs) * 0.95 where bytesPerMs is
// the decoded byte rate of src.
func MaxChunkDuration(src Source, maxBytes int64) (int64, error) {
	if src.DurationMs <= 0 || src.RawByteLength <= 0 || maxBytes <= 0 {
		return 0, apperrors.WithKind(apperrors.ErrInvalidChunkSize, nil,
			"duration=%dms raw=%dB budget=%dB", src.DurationMs, src.RawByteLength, maxBytes)
	}

	bytesPerMs := float64(src.RawByteLength) / float64(src.DurationMs)
	maxDurationMs := int64((float64(maxBytes) / bytesPerMs) * safetyMargin)
	if maxDurationMs <= 0 {
		return 0, apperrors.WithKind(apperrors.ErrInvalidChunkSize, nil,
			"%.1f bytes/ms leaves no room in %dB", bytesPerMs, maxBytes)
	}
	return maxDurationMs, nil
}

// PlanWindows returns the nominal non-overlapping windows covering
// [0, src.DurationMs), the last one possibly partial.
func PlanWindows(src Source, maxBytes int64) ([]Window, error) {
	width, err := MaxChunkDuration(src, maxBytes)
	if err != nil {
		return nil, err
	}

	windows := make([]Window, 0, (src.DurationMs+width-1)/width)
	for start := int64(0); start < src.DurationMs; start += width {
		windows = append(windows, Window{StartMs: start, EndMs: min(start+width, src.DurationMs)})
	}
	return windows, nil
}

// Splitter encodes a source into budget-sized chunk files with ffmpeg.
type Splitter struct {
	ffmpegPath  string
	runner      CommandRunner
	scratchRoot string
	logger      *zap.Logger
}

// SplitterOption configures a Splitter.
type SplitterOption func(*Splitter)

// WithScratchRoot sets the parent directory for per-split scratch dirs.
func WithScratchRoot(dir string) SplitterOption {
	return func(s *Splitter) {
		s.scratchRoot = dir
	}
}

// WithSplitterLogger sets the logger.
func WithSplitterLogger(logger *zap.Logger) SplitterOption {
	return func(s *Splitter) {
		s.logger = logger
	}
}

func NewSplitter(ffmpegPath string, runner CommandRunner, opts ...SplitterOption) *Splitter {
	if runner == nil {
		runner = ExecRunner{}
	}
	s := &Splitter{
		ffmpegPath: ffmpegPath,
		runner:     runner,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.scratchRoot == "" {
		s.scratchRoot = os.TempDir()
	}
	s.logger = logging.OrNop(s.logger)
	return s
}

// Split encodes src into ordered chunks whose files should not exceed
// maxBytes. Each exported file is measured; an overshooting window is shrunk
// and re-encoded, and the following window starts where the shrunk one ended.
// The caller owns the returned ChunkSet and must Close it.
func (s *Splitter) Split(ctx context.Context, src Source, maxBytes int64) (*ChunkSet, error) {
	width, err := MaxChunkDuration(src, maxBytes)
	if err != nil {
		return nil, err
	}

	dir, err := s.makeScratchDir()
	if err != nil {
		return nil, err
	}
	set := &ChunkSet{Dir: dir}

	s.logger.Info("splitting audio",
		zap.String("source", src.Path),
		zap.Int64("duration_ms", src.DurationMs),
		zap.Int64("window_ms", width),
		zap.Int64("budget_bytes", maxBytes),
		zap.String("scratch_dir", dir),
	)

	for start := int64(0); start < src.DurationMs; {
		index := len(set.Chunks)
		chunkPath := filepath.Join(dir, fmt.Sprintf("chunk_%03d.mp4", index))
		end := min(start+width, src.DurationMs)

		end, err = s.exportWithinBudget(ctx, src.Path, chunkPath, index, start, end, maxBytes)
		if err != nil {
			_ = set.Close()
			return nil, err
		}

		set.Chunks = append(set.Chunks, Chunk{
			Index:   index,
			StartMs: start,
			EndMs:   end,
			Path:    chunkPath,
		})
		start = end
	}

	return set, nil
}

func (s *Splitter) exportWithinBudget(ctx context.Context, srcPath, chunkPath string, index int, start, end, maxBytes int64) (int64, error) {
	for attempt := 1; ; attempt++ {
		if err := s.export(ctx, srcPath, chunkPath, start, end); err != nil {
			return 0, apperrors.Wrapf(err, "failed to encode chunk %d", index)
		}

		info, err := os.Stat(chunkPath)
		if err != nil {
			return 0, apperrors.Wrapf(err, "failed to stat chunk %d", index)
		}
		if info.Size() <= maxBytes {
			return end, nil
		}

		shrunk := int64(float64(end-start) * shrinkFactor)
		if attempt == maxExportAttempts || shrunk <= 0 {
			return 0, apperrors.WithKind(apperrors.ErrInvalidChunkSize, nil,
				"chunk %d is %dB after %d attempts, budget %dB", index, info.Size(), attempt, maxBytes)
		}

		s.logger.Warn("chunk over budget, shrinking window",
			zap.Int("chunk", index),
			zap.Int64("size_bytes", info.Size()),
			zap.Int64("budget_bytes", maxBytes),
			zap.Int64("window_ms", shrunk),
		)
		end = start + shrunk
	}
}

func (s *Splitter) export(ctx context.Context, srcPath, chunkPath string, start, end int64) error {
	_, err := s.runner.Run(ctx, s.ffmpegPath,
		"-y", "-v", "error",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(end-start),
		"-i", srcPath,
		"-vn", "-c:a", "aac", "-f", "mp4",
		chunkPath,
	)
	return err
}

// makeScratchDir creates a fresh, per-split directory, clearing any leftover
// directory of the same name.
func (s *Splitter) makeScratchDir() (string, error) {
	dir := filepath.Join(s.scratchRoot, scratchPrefix+"-"+uuid.NewString())
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("failed to clear scratch dir %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scratch dir %s: %w", dir, err)
	}
	return dir, nil
}

func formatSeconds(ms int64) string {
	return strconv.FormatFloat(float64(ms)/1000.0, 'f', 3, 64)
}
