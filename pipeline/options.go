package pipeline

import (
	"fmt"
	"time"

	"github.com/mrsingh-rishi/voice-bridge/audio"
	"github.com/mrsingh-rishi/voice-bridge/llm"
	"github.com/mrsingh-rishi/voice-bridge/model"
	"github.com/mrsingh-rishi/voice-bridge/stt"
)

// Policy decides what happens when transcription produces no text.
type Policy string

const (
	// Substitute continues with FallbackText as the user's words.
	Substitute Policy = "substitute"
	// Halt stops the run with a typed transcription error.
	Halt Policy = "halt"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case Substitute, Halt:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown stt failure policy %q", s)
}

// Options parameterize the orchestrator.
type Options struct {
	STTFailurePolicy Policy
	OutputContainer  model.Container
	PromptTemplate   string
	VoiceLanguage    string
	SystemPrompt     string
	FallbackText     string
	MinDuration      float64
	TempDir          string

	STTTimeout time.Duration
	LLMTimeout time.Duration
	TTSTimeout time.Duration
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		STTFailurePolicy: Substitute,
		OutputContainer:  model.ContainerWAV,
		PromptTemplate:   llm.VoiceTemplate,
		VoiceLanguage:    "en",
		SystemPrompt:     llm.DefaultSystemPrompt,
		FallbackText:     stt.Placeholder,
		MinDuration:      audio.DefaultMinDuration,
		STTTimeout:       30 * time.Second,
		LLMTimeout:       30 * time.Second,
		TTSTimeout:       30 * time.Second,
	}
}

func (o *Options) withDefaults() {
	d := DefaultOptions()
	if o.STTFailurePolicy == "" {
		o.STTFailurePolicy = d.STTFailurePolicy
	}
	if o.OutputContainer == "" {
		o.OutputContainer = d.OutputContainer
	}
	if o.PromptTemplate == "" {
		o.PromptTemplate = d.PromptTemplate
	}
	if o.VoiceLanguage == "" {
		o.VoiceLanguage = d.VoiceLanguage
	}
	if o.SystemPrompt == "" {
		o.SystemPrompt = d.SystemPrompt
	}
	if o.FallbackText == "" {
		o.FallbackText = d.FallbackText
	}
	if o.MinDuration == 0 {
		o.MinDuration = d.MinDuration
	}
	if o.STTTimeout <= 0 {
		o.STTTimeout = d.STTTimeout
	}
	if o.LLMTimeout <= 0 {
		o.LLMTimeout = d.LLMTimeout
	}
	if o.TTSTimeout <= 0 {
		o.TTSTimeout = d.TTSTimeout
	}
}

func (o Options) validate() error {
	if _, err := ParsePolicy(string(o.STTFailurePolicy)); err != nil {
		return err
	}
	if o.OutputContainer != model.ContainerMP3 && o.OutputContainer != model.ContainerWAV {
		return fmt.Errorf("output container must be mp3 or wav, got %q", o.OutputContainer)
	}
	if o.MinDuration < 0 {
		return fmt.Errorf("min duration cannot be negative")
	}
	return nil
}
