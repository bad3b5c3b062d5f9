// Package llm produces short conversational replies from a hosted
// generative-language provider.
package llm

//go:generate mockgen -destination=../mocks/mock_llm.go -package=mocks github.com/mrsingh-rishi/voice-bridge/llm Generator

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/mrsingh-rishi/voice-bridge/model"
)

// DefaultSystemPrompt is the persona used when the caller supplies none.
const DefaultSystemPrompt = "You are a helpful assistant."

// ChatTemplate reproduces the prompt layout of the chat completions
// emulation endpoint.
const ChatTemplate = "{{.System}}\n\nUser: {{.User}}"

// VoiceTemplate is the default prompt for the audio pipeline. The length
// limit keeps synthesized speech inside the device's playback buffer.
const VoiceTemplate = "{{.System}} Respond in under 30 words, conversational and natural.\nUser said: {{.User}}"

// Generator turns a prompt into reply text. Implementations return
// *model.Error with KindGenerationFailed or KindReplyExtractionFailed.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Prompt is a parsed prompt template.
type Prompt struct {
	tmpl *template.Template
}

// ParsePrompt compiles a template that may reference .System and .User.
func ParsePrompt(text string) (*Prompt, error) {
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}
	return &Prompt{tmpl: tmpl}, nil
}

// MustParsePrompt is ParsePrompt for compile-time constants.
func MustParsePrompt(text string) *Prompt {
	p, err := ParsePrompt(text)
	if err != nil {
		panic(err)
	}
	return p
}

// Render fills the template. An empty system prompt becomes
// DefaultSystemPrompt.
func (p *Prompt) Render(system, user string) (string, error) {
	if system == "" {
		system = DefaultSystemPrompt
	}

	var buf bytes.Buffer
	data := struct{ System, User string }{System: system, User: user}
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

// BuildPrompt parses and renders tmpl in one step.
func BuildPrompt(tmpl, system, user string) (string, error) {
	p, err := ParsePrompt(tmpl)
	if err != nil {
		return "", err
	}
	return p.Render(system, user)
}

// ReplyTo renders the prompt, calls g and records the exchange.
func ReplyTo(ctx context.Context, g Generator, p *Prompt, userText, system string) (model.ChatExchange, error) {
	if system == "" {
		system = DefaultSystemPrompt
	}
	exchange := model.ChatExchange{SystemPrompt: system, UserText: userText}

	prompt, err := p.Render(system, userText)
	if err != nil {
		return exchange, model.NewError(model.KindInternal, model.StageReply, err)
	}

	reply, err := g.Generate(ctx, prompt)
	if err != nil {
		return exchange, model.AsError(err, model.StageReply)
	}

	exchange.ReplyText = reply
	return exchange, nil
}
