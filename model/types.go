package model

import (
	"time"

	"github.com/google/uuid"
)

// Container identifies how audio bytes are packaged.
type Container string

const (
	ContainerPCM Container = "pcm"
	ContainerWAV Container = "wav"
	ContainerMP3 Container = "mp3"
)

// ParseContainer maps a user supplied name to a Container.
func ParseContainer(s string) (Container, bool) {
	switch Container(s) {
	case ContainerPCM, ContainerWAV, ContainerMP3:
		return Container(s), true
	}
	return "", false
}

// ContentType returns the MIME type served for the container.
func (c Container) ContentType() string {
	switch c {
	case ContainerWAV:
		return "audio/wav"
	case ContainerMP3:
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

// Format describes the sample layout of an AudioBuffer.
type Format struct {
	SampleRate  int       `json:"sample_rate"`
	Channels    int       `json:"channels"`
	SampleWidth int       `json:"sample_width"` // bytes per sample
	Container   Container `json:"container"`
}

// CanonicalWAV is the profile the device records and plays back:
// mono, 16 kHz, 16-bit, wrapped in a WAV header.
var CanonicalWAV = Format{SampleRate: 16000, Channels: 1, SampleWidth: 2, Container: ContainerWAV}

// CanonicalPCM is CanonicalWAV without the header.
var CanonicalPCM = Format{SampleRate: 16000, Channels: 1, SampleWidth: 2, Container: ContainerPCM}

// BytesPerSecond returns the data rate implied by the format.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * f.SampleWidth
}

// AudioBuffer is a block of audio plus its format.
type AudioBuffer struct {
	Data   []byte
	Format Format

	// Path is set while the bytes are spooled to a temporary file.
	Path string
}

// TranscriptionFailure classifies why a transcription produced no text.
type TranscriptionFailure string

const (
	FailureUnintelligible      TranscriptionFailure = "unintelligible"
	FailureProviderUnavailable TranscriptionFailure = "provider_unavailable"
	FailureProviderError       TranscriptionFailure = "provider_error"
)

// TranscriptionResult holds either recognized text or a failure reason.
type TranscriptionResult struct {
	Text    string
	Failure TranscriptionFailure
	Cause   error
}

// OK reports whether the provider returned usable text.
func (r TranscriptionResult) OK() bool {
	return r.Failure == "" && r.Text != ""
}

// ChatExchange is one prompt/reply round with the language model.
type ChatExchange struct {
	SystemPrompt string `json:"system_prompt"`
	UserText     string `json:"user_text"`
	ReplyText    string `json:"reply_text"`
}

// PipelineRequest ties one inbound HTTP call to its eventual response.
type PipelineRequest struct {
	ID           string
	Audio        []byte
	Source       Container
	SystemPrompt string
	Output       Container
	Received     time.Time
}

// NewPipelineRequest stamps a request with an ID and arrival time.
// An empty id gets a fresh UUID.
func NewPipelineRequest(id string, audio []byte, source, output Container) *PipelineRequest {
	if id == "" {
		id = uuid.NewString()
	}
	return &PipelineRequest{
		ID:       id,
		Audio:    audio,
		Source:   source,
		Output:   output,
		Received: time.Now(),
	}
}
