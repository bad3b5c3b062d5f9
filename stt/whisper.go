package stt

import (
	"bytes"
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/mrsingh-rishi/voice-bridge/model"
)

// WhisperConfig configures the OpenAI-compatible transcription provider.
type WhisperConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	LanguageCode string
}

// WhisperClient transcribes through an OpenAI-compatible
// /audio/transcriptions endpoint.
type WhisperClient struct {
	client   *openai.Client
	model    string
	language string
}

// NewWhisperClient creates a transcription client.
func NewWhisperClient(cfg WhisperConfig) (*WhisperClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en"
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &WhisperClient{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		language: baseLanguage(cfg.LanguageCode),
	}, nil
}

func (w *WhisperClient) Name() string { return "whisper" }

// Transcribe uploads the spooled file when there is one, otherwise the
// in-memory bytes.
func (w *WhisperClient) Transcribe(ctx context.Context, buf model.AudioBuffer) (model.TranscriptionResult, error) {
	req := openai.AudioRequest{
		Model:    w.model,
		Language: w.language,
		FilePath: buf.Path,
	}
	if buf.Path == "" {
		container := buf.Format.Container
		if container == "" {
			container = model.ContainerWAV
		}
		req.Reader = bytes.NewReader(buf.Data)
		req.FilePath = "audio." + string(container)
	}

	resp, err := w.client.CreateTranscription(ctx, req)
	if err != nil {
		return failed(classifyOpenAI(err), errors.Wrap(err, "whisper transcription")), nil
	}
	return textResult(resp.Text), nil
}

func classifyOpenAI(err error) model.TranscriptionFailure {
	code := 0

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		code = reqErr.HTTPStatusCode
		if code == 0 {
			return model.FailureProviderUnavailable
		}
	}

	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden,
		code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
		return model.FailureProviderUnavailable
	case code == 0 && isTransportError(err):
		return model.FailureProviderUnavailable
	}
	return model.FailureProviderError
}
