package report

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Stats is the summary shown next to a finished transcript.
type Stats struct {
	Words           int     `json:"words"`
	WordsPerMinute  float64 `json:"words_per_minute"`
	DurationMinutes float64 `json:"duration_minutes"`
	CostUSD         float64 `json:"cost_usd"`
}

// ComputeStats counts whitespace-separated words and derives speaking rate.
// The rate is 0 when the duration is not positive.
func ComputeStats(text string, durationSeconds, costUSD float64) Stats {
	words := len(strings.Fields(text))
	minutes := durationSeconds / 60
	return Stats{
		Words:           words,
		WordsPerMinute:  lo.Ternary(durationSeconds > 0, float64(words)/minutes, 0),
		DurationMinutes: minutes,
		CostUSD:         costUSD,
	}
}

// Summary renders the stats as the short multi-line readout the front ends
// print.
func (s Stats) Summary() string {
	lines := []string{
		fmt.Sprintf("Words: %d", s.Words),
		fmt.Sprintf("Duration: %.1f min", s.DurationMinutes),
		fmt.Sprintf("Speaking rate: %.0f words/min", s.WordsPerMinute),
		fmt.Sprintf("Estimated cost: $%.4f", s.CostUSD),
	}
	return strings.Join(lines, "\n")
}
