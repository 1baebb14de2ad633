package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "whisper-scribe/internal/app/errors"
	"whisper-scribe/internal/app/model"
)

// Source describes a decodable audio file. RawByteLength is the size of the
// decoded PCM stream (frames * channels * sample width), which is what the
// splitter uses as its bitrate proxy.
type Source struct {
	Path          string
	Format        string
	DurationMs    int64
	RawByteLength int64
	SampleRate    int
	Channels      int
	SampleWidth   int
}

// DurationSeconds returns the decoded duration in seconds.
func (s Source) DurationSeconds() float64 {
	return float64(s.DurationMs) / 1000.0
}

// Prober reads audio metadata with ffprobe.
type Prober struct {
	ffprobePath string
	runner      CommandRunner
}

func NewProber(ffprobePath string, runner CommandRunner) *Prober {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Prober{ffprobePath: ffprobePath, runner: runner}
}

// Probe decodes the container metadata of path. Every failure is reported as
// ErrDecode.
func (p *Prober) Probe(ctx context.Context, path string) (Source, error) {
	output, err := p.runner.Run(ctx, p.ffprobePath,
		"-v", "error", "-print_format", "json", "-show_format", "-show_streams", path)
	if err != nil {
		return Source{}, apperrors.WithKind(apperrors.ErrDecode, err, "%s", path)
	}
	return ParseProbeOutput(path, output)
}

// ParseProbeOutput builds a Source from raw ffprobe JSON.
func ParseProbeOutput(path string, output []byte) (Source, error) {
	var probe model.FFProbeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return Source{}, apperrors.WithKind(apperrors.ErrDecode, err, "%s: unreadable ffprobe output", path)
	}

	var stream *model.FFProbeStream
	for i := range probe.Streams {
		if probe.Streams[i].CodecType == "audio" {
			stream = &probe.Streams[i]
			break
		}
	}
	if stream == nil {
		return Source{}, apperrors.WithKind(apperrors.ErrDecode, nil, "%s: no audio stream", path)
	}
	if stream.SampleRate <= 0 || stream.Channels <= 0 {
		return Source{}, apperrors.WithKind(apperrors.ErrDecode, nil,
			"%s: invalid stream layout (rate=%d channels=%d)", path, stream.SampleRate, stream.Channels)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64)
	if err != nil || seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return Source{}, apperrors.WithKind(apperrors.ErrDecode, err, "%s: invalid duration %q", path, probe.Format.Duration)
	}

	width := sampleWidth(*stream)
	frames := int64(math.Round(seconds * float64(stream.SampleRate)))

	return Source{
		Path:          path,
		Format:        probe.Format.FormatName,
		DurationMs:    int64(math.Round(seconds * 1000)),
		RawByteLength: frames * int64(stream.Channels) * int64(width),
		SampleRate:    stream.SampleRate,
		Channels:      stream.Channels,
		SampleWidth:   width,
	}, nil
}

// sampleWidth returns the byte width a stream decodes to. Lossy codecs
// report float planar samples and no bit depth; those decode to 16-bit PCM.
func sampleWidth(stream model.FFProbeStream) int {
	if stream.BitsPerSample > 0 {
		return (stream.BitsPerSample + 7) / 8
	}
	switch strings.TrimSuffix(stream.SampleFmt, "p") {
	case "u8":
		return 1
	case "s32":
		return 4
	default:
		return 2
	}
}

// String returns a human-readable representation for logging.
func (s Source) String() string {
	return fmt.Sprintf("%s (%s, %.1fs, %dHz x%d)", s.Path, s.Format, s.DurationSeconds(), s.SampleRate, s.Channels)
}
