package model

import "time"

// Transcription is one finished request as kept in the history store.
type Transcription struct {
	ID              int64     `json:"id"`
	JobID           string    `json:"job_id"`
	FileName        string    `json:"file_name"`
	Status          string    `json:"status"`
	DurationSeconds float64   `json:"duration_seconds"`
	CostUSD         float64   `json:"cost_usd"`
	Chunks          int       `json:"chunks"`
	Words           int       `json:"words"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
