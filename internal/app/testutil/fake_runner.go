package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FakeRunner stands in for ffprobe/ffmpeg. Probe calls return ProbeOutput;
// encode calls write a file of ExportSize bytes to the last argument.
type FakeRunner struct {
	mu sync.Mutex

	ProbeOutput []byte
	ProbeErr    error

	// ExportSize returns the size of the n-th (zero based) encoded file.
	// Nil writes 1KiB files.
	ExportSize func(n int, args []string) int64
	ExportErr  error

	Calls   [][]string
	exports int
}

// Run implements audio.CommandRunner.
func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, append([]string{name}, args...))

	if strings.Contains(filepath.Base(name), "ffprobe") {
		if f.ProbeErr != nil {
			return nil, f.ProbeErr
		}
		return f.ProbeOutput, nil
	}

	if f.ExportErr != nil {
		return nil, f.ExportErr
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("fake runner: no output path")
	}

	size := int64(1024)
	if f.ExportSize != nil {
		size = f.ExportSize(f.exports, args)
	}
	f.exports++

	out := args[len(args)-1]
	if err := os.WriteFile(out, make([]byte, size), 0o644); err != nil {
		return nil, err
	}
	return nil, nil
}

// ExportCalls returns the recorded encode invocations.
func (f *FakeRunner) ExportCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var calls [][]string
	for _, c := range f.Calls {
		if !strings.Contains(filepath.Base(c[0]), "ffprobe") {
			calls = append(calls, c)
		}
	}
	return calls
}

// ArgValue returns the value following flag in args, or "".
func ArgValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// ProbeJSON renders an ffprobe document for a single audio stream.
func ProbeJSON(durationSeconds float64, sampleRate, channels int, sampleFmt string, bitsPerSample int) []byte {
	return []byte(fmt.Sprintf(`{
  "streams": [
    {"codec_type": "video", "codec_name": "h264"},
    {"codec_type": "audio", "codec_name": "aac", "sample_rate": "%d", "channels": %d, "sample_fmt": %q, "bits_per_sample": %d}
  ],
  "format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "%.6f", "size": "1000"}
}`, sampleRate, channels, sampleFmt, bitsPerSample, durationSeconds))
}
