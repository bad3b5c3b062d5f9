// Package stt turns canonical WAV audio into text through a hosted
// speech-recognition provider.
package stt

//go:generate mockgen -destination=../mocks/mock_stt.go -package=mocks github.com/mrsingh-rishi/voice-bridge/stt Transcriber

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/mrsingh-rishi/voice-bridge/model"
)

// Placeholder is substituted for the transcript when recognition fails and
// the pipeline is configured to keep going.
const Placeholder = "Sorry, I could not understand that."

// Transcriber submits audio to a recognition provider. Provider failures are
// reported through TranscriptionResult.Failure; the error return is reserved
// for problems on our side of the call.
type Transcriber interface {
	Transcribe(ctx context.Context, buf model.AudioBuffer) (model.TranscriptionResult, error)
	Name() string
}

// Calibrator is implemented by providers that can adjust for ambient noise
// before recognition.
type Calibrator interface {
	Calibrate(ctx context.Context, buf model.AudioBuffer) (model.AudioBuffer, error)
}

// Calibrate runs t's noise calibration if it has one.
func Calibrate(ctx context.Context, t Transcriber, buf model.AudioBuffer) (model.AudioBuffer, error) {
	c, ok := t.(Calibrator)
	if !ok {
		return buf, nil
	}
	return c.Calibrate(ctx, buf)
}

func textResult(text string) model.TranscriptionResult {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.TranscriptionResult{Failure: model.FailureUnintelligible}
	}
	return model.TranscriptionResult{Text: text}
}

func failed(f model.TranscriptionFailure, cause error) model.TranscriptionResult {
	return model.TranscriptionResult{Failure: f, Cause: cause}
}

// isTransportError reports network-level failures that mean the provider
// could not be reached at all.
func isTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// baseLanguage trims a BCP-47 tag down to its ISO-639-1 language.
func baseLanguage(tag string) string {
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		return strings.ToLower(tag[:i])
	}
	return strings.ToLower(tag)
}
