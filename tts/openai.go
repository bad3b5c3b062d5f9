package tts

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/mrsingh-rishi/voice-bridge/model"
)

// OpenAIConfig configures OpenAIClient.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Voice   string
}

// OpenAIClient synthesizes through an OpenAI-compatible /audio/speech
// endpoint. The lang argument is ignored; the voices are multilingual.
type OpenAIClient struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.SpeechVoice
}

func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.TTSModel1)
	}
	if cfg.Voice == "" {
		cfg.Voice = string(openai.VoiceAlloy)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  openai.SpeechModel(cfg.Model),
		voice:  openai.SpeechVoice(cfg.Voice),
	}, nil
}

func (o *OpenAIClient) Name() string { return "openai" }

func (o *OpenAIClient) Synthesize(ctx context.Context, text, _ string) (model.AudioBuffer, error) {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          o.model,
		Input:          text,
		Voice:          o.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return model.AudioBuffer{}, providerError(errors.Wrap(err, "create speech"))
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return model.AudioBuffer{}, providerError(errors.Wrap(err, "read speech"))
	}

	return model.AudioBuffer{
		Data:   data,
		Format: model.Format{Container: model.ContainerMP3},
	}, nil
}
