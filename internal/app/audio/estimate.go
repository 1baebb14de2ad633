package audio

// DefaultRatePerMinute is the Whisper API price in USD per audio minute.
const DefaultRatePerMinute = 0.006

// CostEstimate is the informational duration/price pair shown before a
// transcription starts.
type CostEstimate struct {
	DurationSeconds float64 `json:"duration_seconds"`
	CostUSD         float64 `json:"cost_usd"`
}

// DurationMinutes returns the duration in minutes.
func (c CostEstimate) DurationMinutes() float64 {
	return c.DurationSeconds / 60
}

// EstimateCost prices durationSeconds at ratePerMinute. A non-positive rate
// falls back to DefaultRatePerMinute.
func EstimateCost(durationSeconds, ratePerMinute float64) CostEstimate {
	if ratePerMinute <= 0 {
		ratePerMinute = DefaultRatePerMinute
	}
	return CostEstimate{
		DurationSeconds: durationSeconds,
		CostUSD:         (durationSeconds / 60) * ratePerMinute,
	}
}

// Estimate prices a probed source.
func Estimate(src Source, ratePerMinute float64) CostEstimate {
	return EstimateCost(src.DurationSeconds(), ratePerMinute)
}
