package testutil

import (
	"context"
	"sort"
	"sync"

	"whisper-scribe/internal/app/model"
	"whisper-scribe/internal/app/repository"
)

// MockTranscriptionDAO is an in-memory repository.TranscriptionDAO.
// RecordErr, when set, is returned by every Record call.
type MockTranscriptionDAO struct {
	mu sync.Mutex

	RecordErr error

	transcriptions []model.Transcription
	nextID         int64
	closed         bool
}

// NewMockTranscriptionDAO creates an empty store.
func NewMockTranscriptionDAO() *MockTranscriptionDAO {
	return &MockTranscriptionDAO{nextID: 1}
}

// Record implements repository.TranscriptionDAO.
func (m *MockTranscriptionDAO) Record(_ context.Context, t *model.Transcription) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.RecordErr != nil {
		return 0, m.RecordErr
	}
	t.ID = m.nextID
	m.nextID++
	m.transcriptions = append(m.transcriptions, *t)
	return t.ID, nil
}

// List implements repository.TranscriptionDAO.
func (m *MockTranscriptionDAO) List(_ context.Context, limit int) ([]model.Transcription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Transcription, len(m.transcriptions))
	copy(out, m.transcriptions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close implements repository.TranscriptionDAO.
func (m *MockTranscriptionDAO) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Recorded returns a copy of every stored entry in insertion order.
func (m *MockTranscriptionDAO) Recorded() []model.Transcription {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Transcription, len(m.transcriptions))
	copy(out, m.transcriptions)
	return out
}

// Closed reports whether Close was called.
func (m *MockTranscriptionDAO) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ repository.TranscriptionDAO = (*MockTranscriptionDAO)(nil)
