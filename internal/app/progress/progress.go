package progress

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Config controls whether bars are drawn and where.
type Config struct {
	Enabled bool
	Writer  io.Writer
}

// Manager owns the mpb container. A disabled Manager hands out no-op bars.
type Manager struct {
	container *mpb.Progress
	enabled   bool
	mu        sync.Mutex
}

// Bar tracks chunk progress for one transcription.
type Bar struct {
	bar     *mpb.Bar
	enabled bool
}

func NewManager(config Config) *Manager {
	if !config.Enabled {
		return &Manager{}
	}

	writer := config.Writer
	if writer == nil {
		writer = os.Stderr
	}

	return &Manager{
		container: mpb.New(
			mpb.WithOutput(writer),
			mpb.WithRefreshRate(150*time.Millisecond),
		),
		enabled: true,
	}
}

// NewBar adds a bar labelled description. The total is unknown until the
// file has been split, so it starts at zero and is set by Update.
func (m *Manager) NewBar(description string) *Bar {
	if !m.enabled || m.container == nil {
		return &Bar{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	bar := m.container.AddBar(0,
		mpb.PrependDecorators(
			decor.Name(description+" ", decor.WC{W: len(description) + 1, C: decor.DindentRight}),
			decor.CountersNoUnit("chunk %d/%d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.Elapsed(decor.ET_STYLE_GO, decor.WCSyncSpace), " done"),
		),
	)
	return &Bar{bar: bar, enabled: true}
}

// Update moves the bar to done out of total chunks. It matches the
// orchestrator's progress callback signature.
func (b *Bar) Update(done, total int) {
	if !b.enabled || b.bar == nil {
		return
	}
	b.bar.SetTotal(int64(total), false)
	b.bar.SetCurrent(int64(done))
	if total > 0 && done >= total {
		b.bar.SetTotal(int64(total), true)
	}
}

// Abort stops the bar early, leaving it on screen.
func (b *Bar) Abort() {
	if b.enabled && b.bar != nil && !b.bar.Completed() {
		b.bar.Abort(false)
	}
}

// Wait blocks until every bar has rendered its final state.
func (m *Manager) Wait() {
	if m.enabled && m.container != nil {
		m.container.Wait()
	}
}

// IsTTY reports whether writer is a terminal.
func IsTTY(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// ShouldShow decides whether to draw bars: always when forced, otherwise only
// on a terminal.
func ShouldShow(forced bool) bool {
	return forced || IsTTY(os.Stderr)
}
