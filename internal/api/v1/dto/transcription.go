package dto

import (
	"time"

	"whisper-scribe/internal/app/report"
	"whisper-scribe/internal/app/storage"
)

// Job states reported by the API.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// ProgressResponse is the chunk counter of a running job.
type ProgressResponse struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// JobResponse represents a transcription job in API responses
type JobResponse struct {
	ID              string                       `json:"id"`
	FileName        string                       `json:"file_name"`
	Status          string                       `json:"status"`
	Progress        ProgressResponse             `json:"progress"`
	DurationSeconds float64                      `json:"duration_seconds"`
	CostUSD         float64                      `json:"cost_usd"`
	Chunks          int                          `json:"chunks,omitempty"`
	Text            string                       `json:"text,omitempty"`
	Stats           *report.Stats                `json:"stats,omitempty"`
	Error           string                       `json:"error,omitempty"`
	Artifacts       map[string]*storage.Artifact `json:"artifacts,omitempty"`
	CreatedAt       time.Time                    `json:"created_at"`
	FinishedAt      *time.Time                   `json:"finished_at,omitempty"`
}

// EstimateResponse is the pre-flight duration and price of an upload.
type EstimateResponse struct {
	FileName        string  `json:"file_name"`
	Format          string  `json:"format"`
	DurationSeconds float64 `json:"duration_seconds"`
	DurationMinutes float64 `json:"duration_minutes"`
	CostUSD         float64 `json:"cost_usd"`
	SampleRate      int     `json:"sample_rate"`
	Channels        int     `json:"channels"`
}

// DownloadQuery selects the report format.
type DownloadQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=pdf txt"`
}

// FormatOrDefault returns the requested format, pdf when none was given.
func (q DownloadQuery) FormatOrDefault() string {
	if q.Format == "" {
		return "pdf"
	}
	return q.Format
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Jobs      int       `json:"active_jobs"`
}
