package repository

import (
	"context"

	"whisper-scribe/internal/app/model"
)

// TranscriptionDAO persists the transcription history.
type TranscriptionDAO interface {
	Close() error

	// Record stores t and returns its assigned ID.
	Record(ctx context.Context, t *model.Transcription) (int64, error)

	// List returns up to limit entries, newest first. A non-positive limit
	// returns everything.
	List(ctx context.Context, limit int) ([]model.Transcription, error)
}
