package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsingh-rishi/voice-bridge/mocks"
	"github.com/mrsingh-rishi/voice-bridge/model"
)

func TestBuildPrompt(t *testing.T) {
	got, err := BuildPrompt(ChatTemplate, "Be terse.", "Hi")
	require.NoError(t, err)
	assert.Equal(t, "Be terse.\n\nUser: Hi", got)

	got, err = BuildPrompt(VoiceTemplate, "", "what time is it")
	require.NoError(t, err)
	assert.Equal(t, "You are a helpful assistant. Respond in under 30 words, conversational and natural.\nUser said: what time is it", got)

	_, err = BuildPrompt("{{.System", "a", "b")
	assert.Error(t, err)
}

func TestReplyTo(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().Generate(gomock.Any(), "Be terse.\n\nUser: Hi").Return("Hello.", nil)

	ex, err := ReplyTo(context.Background(), gen, MustParsePrompt(ChatTemplate), "Hi", "Be terse.")
	require.NoError(t, err)
	assert.Equal(t, model.ChatExchange{SystemPrompt: "Be terse.", UserText: "Hi", ReplyText: "Hello."}, ex)
}

func TestReplyToWrapsUntypedErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("", errors.New("boom"))

	ex, err := ReplyTo(context.Background(), gen, MustParsePrompt(VoiceTemplate), "Hi", "")
	require.Error(t, err)
	assert.Equal(t, model.KindInternal, model.KindOf(err))
	assert.Equal(t, DefaultSystemPrompt, ex.SystemPrompt)
	assert.Empty(t, ex.ReplyText)
}

func newChatServer(t *testing.T, status int, body any) (*httptest.Server, *openai.ChatCompletionRequest) {
	t.Helper()
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestOpenAIClientGenerate(t *testing.T) {
	srv, got := newChatServer(t, http.StatusOK, openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: " It is noon. "},
			FinishReason: openai.FinishReasonStop,
		}},
	})

	c, err := NewOpenAIClient(Config{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)

	reply, err := c.Generate(context.Background(), "what time is it")
	require.NoError(t, err)
	assert.Equal(t, "It is noon.", reply)

	assert.Equal(t, DefaultModel, got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, openai.ChatMessageRoleUser, got.Messages[0].Role)
	assert.Equal(t, "what time is it", got.Messages[0].Content)
}

func TestOpenAIClientFailures(t *testing.T) {
	apiErr := map[string]any{"error": map[string]any{"message": "quota", "type": "rate_limit"}}

	tests := []struct {
		name   string
		status int
		body   any
		want   model.Kind
	}{
		{"provider error", http.StatusTooManyRequests, apiErr, model.KindGenerationFailed},
		{"no choices", http.StatusOK, openai.ChatCompletionResponse{}, model.KindReplyExtractionFailed},
		{"empty content", http.StatusOK, openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{FinishReason: openai.FinishReasonContentFilter}},
		}, model.KindReplyExtractionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newChatServer(t, tt.status, tt.body)
			c, err := NewOpenAIClient(Config{APIKey: "key", BaseURL: srv.URL})
			require.NoError(t, err)

			reply, err := c.Generate(context.Background(), "hi")
			require.Error(t, err)
			assert.Empty(t, reply)
			assert.Equal(t, tt.want, model.KindOf(err))
		})
	}
}

func TestNewOpenAIClient(t *testing.T) {
	_, err := NewOpenAIClient(Config{})
	assert.Error(t, err)

	c, err := NewOpenAIClient(Config{APIKey: "key", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", c.Model)
}
