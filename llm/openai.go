package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/mrsingh-rishi/voice-bridge/model"
)

const (
	// GeminiBaseURL is Google's OpenAI-compatible endpoint for Gemini.
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel  = "gemini-2.5-flash"
)

// Config configures OpenAIClient.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIClient sends single-shot prompts to an OpenAI-compatible chat
// completion endpoint. No conversation state is kept between calls.
type OpenAIClient struct {
	Client *openai.Client
	Model  string
}

func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimSuffix(GeminiBaseURL, "/")
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAIClient{
		Client: openai.NewClientWithConfig(clientCfg),
		Model:  cfg.Model,
	}, nil
}

// Generate sends prompt as one user message and returns the reply text.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", model.NewError(model.KindGenerationFailed, model.StageReply,
			errors.Wrap(err, "chat completion"))
	}

	return extractReply(resp)
}

// extractReply refuses to fall back to a printed form of the response: a
// reply without text is a typed failure.
func extractReply(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", model.NewError(model.KindReplyExtractionFailed, model.StageReply,
			errors.New("response has no choices"))
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", model.NewError(model.KindReplyExtractionFailed, model.StageReply,
			errors.Errorf("empty reply (finish reason %q)", resp.Choices[0].FinishReason))
	}
	return text, nil
}
