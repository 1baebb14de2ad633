package whisper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	apperrors "whisper-scribe/internal/app/errors"
	"whisper-scribe/internal/app/logging"
)

// DefaultTimeout bounds a single upload+transcription round trip.
const DefaultTimeout = 10 * time.Minute

// RemoteTranscriber implements remote transcription using the OpenAI API.
type RemoteTranscriber struct {
	client   *openai.Client
	model    string
	language string
	timeout  time.Duration
	logger   *zap.Logger
}

// Option configures a RemoteTranscriber.
type Option func(*RemoteTranscriber)

// WithModel overrides the model name, whisper-1 by default.
func WithModel(model string) Option {
	return func(rt *RemoteTranscriber) {
		if model != "" {
			rt.model = model
		}
	}
}

// WithLanguage sets an ISO-639-1 hint. Empty lets the service detect it.
func WithLanguage(language string) Option {
	return func(rt *RemoteTranscriber) {
		rt.language = language
	}
}

// WithTimeout sets the per-call deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(rt *RemoteTranscriber) {
		if timeout > 0 {
			rt.timeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(rt *RemoteTranscriber) {
		rt.logger = logger
	}
}

// NewRemoteTranscriber creates a new RemoteTranscriber instance.
func NewRemoteTranscriber(client *openai.Client, opts ...Option) *RemoteTranscriber {
	rt := &RemoteTranscriber{
		client:  client,
		model:   openai.Whisper1,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(rt)
	}
	rt.logger = logging.OrNop(rt.logger)
	return rt
}

// Transcript uploads inputFilePath and returns the recognized text. The call
// is never interrupted by cancellation of ctx: a request in flight runs to
// completion or to the transcriber's own timeout.
func (rt *RemoteTranscriber) Transcript(ctx context.Context, inputFilePath string) (string, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rt.timeout)
	defer cancel()

	req := openai.AudioRequest{
		Model:    rt.model,
		FilePath: inputFilePath,
		Language: rt.language,
		Format:   openai.AudioResponseFormatJSON,
	}

	start := time.Now()
	resp, err := rt.client.CreateTranscription(callCtx, req)
	if err != nil {
		rt.logger.Warn("transcription request failed",
			zap.String("file", inputFilePath),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", classify(inputFilePath, err)
	}

	rt.logger.Debug("transcription request done",
		zap.String("file", inputFilePath),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", len(resp.Text)),
	)
	return resp.Text, nil
}

// classify wraps err as ErrRemoteTranscription with the status detail the
// service gave, if any.
func classify(path string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apperrors.WithKind(apperrors.ErrRemoteTranscription, err, "%s: %s", path, statusHint(apiErr.HTTPStatusCode))
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return apperrors.WithKind(apperrors.ErrRemoteTranscription, err, "%s: %s", path, statusHint(reqErr.HTTPStatusCode))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.WithKind(apperrors.ErrRemoteTranscription, err, "%s: timed out", path)
	}
	return apperrors.WithKind(apperrors.ErrRemoteTranscription, err, "%s", path)
}

func statusHint(code int) string {
	switch code {
	case http.StatusUnauthorized:
		return "status 401, API key is invalid or missing"
	case http.StatusTooManyRequests:
		return "status 429, rate limit or quota exceeded"
	case http.StatusRequestEntityTooLarge:
		return "status 413, file exceeds the upload limit"
	case http.StatusBadRequest:
		return "status 400, request rejected"
	default:
		return fmt.Sprintf("status %d", code)
	}
}
