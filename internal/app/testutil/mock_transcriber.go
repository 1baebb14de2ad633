package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/stretchr/testify/mock"

	"whisper-scribe/internal/app/api"
)

// MockTranscriber is a testify mock of api.Transcriber.
type MockTranscriber struct {
	mock.Mock
}

// Transcript implements api.Transcriber.
func (m *MockTranscriber) Transcript(ctx context.Context, inputFilePath string) (string, error) {
	args := m.Called(ctx, inputFilePath)
	return args.String(0), args.Error(1)
}

// ExpectTranscript sets up an expectation for the chunk named base.
func (m *MockTranscriber) ExpectTranscript(base, response string, err error) *mock.Call {
	return m.On("Transcript", mock.Anything, mock.MatchedBy(func(path string) bool {
		return filepath.Base(path) == base
	})).Return(response, err)
}

// ScriptedTranscriber answers calls in order from Responses and records the
// paths it was given. BeforeCall runs first on every call, which lets tests
// trigger cancellation at a precise chunk.
type ScriptedTranscriber struct {
	mu sync.Mutex

	Responses  []string
	Errors     map[int]error
	BeforeCall func(n int, path string)

	Paths []string
}

// Transcript implements api.Transcriber.
func (s *ScriptedTranscriber) Transcript(ctx context.Context, inputFilePath string) (string, error) {
	s.mu.Lock()
	n := len(s.Paths)
	s.Paths = append(s.Paths, inputFilePath)
	hook := s.BeforeCall
	s.mu.Unlock()

	if hook != nil {
		hook(n, inputFilePath)
	}
	if err, ok := s.Errors[n]; ok {
		return "", err
	}
	if n < len(s.Responses) {
		return s.Responses[n], nil
	}
	return fmt.Sprintf("fragment %d", n), nil
}

// CallCount returns the number of calls made.
func (s *ScriptedTranscriber) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Paths)
}

var (
	_ api.Transcriber = (*MockTranscriber)(nil)
	_ api.Transcriber = (*ScriptedTranscriber)(nil)
)
