package openai

import (
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	apperrors "whisper-scribe/internal/app/errors"
)

// NewClient builds an OpenAI client for apiKey. baseURL and httpClient are
// optional and exist mostly so tests can point the client at a fake server.
func NewClient(apiKey, baseURL string, httpClient *http.Client) (*openai.Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, apperrors.WithKind(apperrors.ErrMissingCredential, apperrors.RequiredField("OPENAI_API_KEY"), "")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		config.HTTPClient = httpClient
	}
	return openai.NewClientWithConfig(config), nil
}
