package main

import (
	"context"
	"fmt"

	"github.com/mrsingh-rishi/voice-bridge/config"
	"github.com/mrsingh-rishi/voice-bridge/llm"
	"github.com/mrsingh-rishi/voice-bridge/model"
	"github.com/mrsingh-rishi/voice-bridge/stt"
	"github.com/mrsingh-rishi/voice-bridge/tts"
)

type providers struct {
	stt    stt.Transcriber
	llm    llm.Generator
	tts    tts.Synthesizer
	closer func() error
}

func (p *providers) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

func newProviders(ctx context.Context, cfg *config.Config) (*providers, error) {
	p := &providers{}

	switch cfg.STT.Provider {
	case "google":
		g, err := stt.NewGoogleClient(ctx, stt.GoogleConfig{
			APIKey:       cfg.STT.APIKey,
			LanguageCode: cfg.STT.LanguageCode,
			Noise: stt.NoiseConfig{
				Enabled: cfg.STT.AmbientNoise.Enabled,
				Lead:    cfg.STT.AmbientNoise.GetLeadDuration(),
				Factor:  cfg.STT.AmbientNoise.Factor,
			},
		})
		if err != nil {
			return nil, err
		}
		p.stt = g
		p.closer = g.Close
	case "whisper":
		w, err := stt.NewWhisperClient(stt.WhisperConfig{
			APIKey:       cfg.STT.APIKey,
			BaseURL:      cfg.STT.BaseURL,
			Model:        cfg.STT.Model,
			LanguageCode: cfg.STT.LanguageCode,
		})
		if err != nil {
			return nil, fmt.Errorf("whisper: %w", err)
		}
		p.stt = w
	default:
		return nil, fmt.Errorf("unknown stt provider %q", cfg.STT.Provider)
	}

	gen, err := llm.NewOpenAIClient(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.GetTimeoutDuration(),
	})
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("llm: %w", err)
	}
	p.llm = gen

	switch cfg.TTS.Provider {
	case "gtts":
		p.tts = tts.NewGTTSClient(tts.GTTSConfig{
			BaseURL: cfg.TTS.BaseURL,
			Timeout: cfg.TTS.GetTimeoutDuration(),
		})
	case "openai":
		o, err := tts.NewOpenAIClient(tts.OpenAIConfig{
			APIKey:  cfg.TTS.APIKey,
			BaseURL: cfg.TTS.BaseURL,
			Model:   cfg.TTS.Model,
			Voice:   cfg.TTS.Voice,
		})
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("tts: %w", err)
		}
		p.tts = o
	default:
		p.Close()
		return nil, fmt.Errorf("unknown tts provider %q", cfg.TTS.Provider)
	}

	return p, nil
}

func outputContainer(format string) model.Container {
	if c, ok := model.ParseContainer(format); ok {
		return c
	}
	return model.ContainerWAV
}
