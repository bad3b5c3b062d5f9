package server

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sashabaranov/go-openai"

	"github.com/mrsingh-rishi/voice-bridge/llm"
	"github.com/mrsingh-rishi/voice-bridge/model"
	"github.com/mrsingh-rishi/voice-bridge/output"
)

const noUserMessage = "No user message found."

// handleTranscriptions emulates the OpenAI transcription endpoint. The
// model form field is accepted and ignored.
func (s *Server) handleTranscriptions(c *fiber.Ctx) error {
	data, container, err := formAudio(c, "file")
	if err != nil {
		return output.BadRequest(c, "%v", err)
	}

	text, err := s.orch.Transcribe(c.UserContext(), data, container)
	if err != nil {
		s.requestLogger(c).Warn("Transcription failed", slog.String("error", err.Error()))
		return output.Error(c, err)
	}

	s.requestLogger(c).Info("Transcribed", slog.Int("bytes", len(data)), slog.Int("chars", len(text)))
	return c.JSON(fiber.Map{"text": text})
}

// handleChatCompletions emulates the OpenAI chat completions endpoint.
// The first system message is the persona and only a trailing user
// message is answered.
func (s *Server) handleChatCompletions(c *fiber.Ctx) error {
	var req openai.ChatCompletionRequest
	if err := c.BodyParser(&req); err != nil {
		return output.BadRequest(c, "invalid JSON: %v", err)
	}

	system := llm.DefaultSystemPrompt
	for _, msg := range req.Messages {
		if msg.Role == openai.ChatMessageRoleSystem {
			system = messageText(msg)
			break
		}
	}

	user := noUserMessage
	if n := len(req.Messages); n > 0 && req.Messages[n-1].Role == openai.ChatMessageRoleUser {
		user = messageText(req.Messages[n-1])
	}

	exchange, err := s.orch.Chat(c.UserContext(), user, system)
	if err != nil {
		s.requestLogger(c).Warn("Chat completion failed", slog.String("error", err.Error()))
		return output.Error(c, err)
	}

	return c.JSON(openai.ChatCompletionResponse{
		ID:      "chatcmpl-" + requestID(c),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []openai.ChatCompletionChoice{{
			Index: 0,
			Message: openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: exchange.ReplyText,
			},
			FinishReason: openai.FinishReasonStop,
		}},
	})
}

// handleSpeech emulates the OpenAI speech endpoint. Voice and model are
// ignored; response_format=wav returns device-ready audio.
func (s *Server) handleSpeech(c *fiber.Ctx) error {
	var req openai.CreateSpeechRequest
	if err := c.BodyParser(&req); err != nil {
		return output.BadRequest(c, "invalid JSON: %v", err)
	}
	if strings.TrimSpace(req.Input) == "" {
		return output.BadRequest(c, "input is required")
	}

	out := model.ContainerMP3
	if req.ResponseFormat == openai.SpeechResponseFormatWav {
		out = model.ContainerWAV
	}

	buf, err := s.orch.Speak(c.UserContext(), req.Input, out)
	if err != nil {
		s.requestLogger(c).Warn("Speech synthesis failed", slog.String("error", err.Error()))
		return output.Error(c, err)
	}
	return output.Audio(c, buf, "")
}

// handleRawPCM runs the full pipeline on a raw 16 kHz mono 16-bit body.
// ?format=mp3|wav overrides the configured output and ?prompt= the persona.
func (s *Server) handleRawPCM(c *fiber.Ctx) error {
	var out model.Container
	if f := c.Query("format"); f != "" {
		container, ok := model.ParseContainer(f)
		if !ok || container == model.ContainerPCM {
			return output.BadRequest(c, "unsupported format %q", f)
		}
		out = container
	}

	req := model.NewPipelineRequest(requestID(c), bytes.Clone(c.Body()), model.ContainerPCM, out)
	req.SystemPrompt = c.Query("prompt")

	return s.run(c, req, "")
}

// handleProcessAudio runs the full pipeline on a multipart upload and
// always answers with an MP3 attachment.
func (s *Server) handleProcessAudio(c *fiber.Ctx) error {
	data, container, err := formAudio(c, "audio")
	if err != nil {
		return output.BadRequest(c, "%v", err)
	}

	req := model.NewPipelineRequest(requestID(c), data, container, model.ContainerMP3)
	req.SystemPrompt = c.FormValue("prompt")

	return s.run(c, req, "response.mp3")
}

func (s *Server) run(c *fiber.Ctx, req *model.PipelineRequest, attachment string) error {
	res, err := s.orch.Run(c.UserContext(), req)
	if err != nil {
		return output.Error(c, err)
	}
	return output.Audio(c, res.Audio, attachment)
}

// formAudio reads an uploaded file and guesses its container from the
// file name. Unknown extensions are treated as WAV.
func formAudio(c *fiber.Ctx, field string) ([]byte, model.Container, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, field+" file is required")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, field+" file is empty")
	}

	container := model.ContainerWAV
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fh.Filename)), "."); ext != "" {
		if parsed, ok := model.ParseContainer(ext); ok {
			container = parsed
		}
	}
	return data, container, nil
}

func messageText(msg openai.ChatCompletionMessage) string {
	if msg.Content != "" || len(msg.MultiContent) == 0 {
		return msg.Content
	}
	var parts []string
	for _, part := range msg.MultiContent {
		if part.Type == openai.ChatMessagePartTypeText {
			parts = append(parts, part.Text)
		}
	}
	return strings.Join(parts, " ")
}
