package stt

import (
	"context"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mrsingh-rishi/voice-bridge/audio"
	"github.com/mrsingh-rishi/voice-bridge/model"
)

// NoiseConfig controls the ambient-noise gate applied before recognition.
type NoiseConfig struct {
	Enabled bool
	Lead    time.Duration
	Factor  float64
}

// GoogleConfig configures the Google Cloud Speech provider.
type GoogleConfig struct {
	APIKey       string // empty means Application Default Credentials
	LanguageCode string
	Noise        NoiseConfig
}

type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
}

// GoogleClient transcribes through Google Cloud Speech-to-Text.
type GoogleClient struct {
	client   recognizer
	close    func() error
	language string
	noise    NoiseConfig
}

// NewGoogleClient dials the Speech API.
func NewGoogleClient(ctx context.Context, cfg GoogleConfig) (*GoogleClient, error) {
	var opts []option.ClientOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create speech client")
	}

	g := newGoogleClient(client, cfg)
	g.close = client.Close
	return g, nil
}

func newGoogleClient(r recognizer, cfg GoogleConfig) *GoogleClient {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	if cfg.Noise.Lead <= 0 {
		cfg.Noise.Lead = 250 * time.Millisecond
	}
	if cfg.Noise.Factor <= 0 {
		cfg.Noise.Factor = 1.5
	}
	return &GoogleClient{client: r, language: cfg.LanguageCode, noise: cfg.Noise}
}

func (g *GoogleClient) Name() string { return "google" }

// Close releases the gRPC connection.
func (g *GoogleClient) Close() error {
	if g.close == nil {
		return nil
	}
	return g.close()
}

// Calibrate gates out the ambient noise floor measured on the leading
// segment. Buffers that are not 16-bit PCM WAV are returned as is.
func (g *GoogleClient) Calibrate(_ context.Context, buf model.AudioBuffer) (model.AudioBuffer, error) {
	if !g.noise.Enabled {
		return buf, nil
	}

	pcm, info, err := audio.DecodeWAV(buf.Data)
	if err != nil || info.Format.SampleWidth != 2 || info.Format.Channels != 1 {
		return buf, nil
	}

	gated := audio.GateNoise(pcm, info.Format.SampleRate, g.noise.Lead, g.noise.Factor)
	wav, err := audio.EncodeWAV(gated, info.Format)
	if err != nil {
		return buf, errors.Wrap(err, "re-encode gated audio")
	}
	// the spooled file no longer matches the data
	return model.AudioBuffer{Data: wav, Format: info.Format}, nil
}

// Transcribe sends the whole buffer in a single synchronous Recognize call.
func (g *GoogleClient) Transcribe(ctx context.Context, buf model.AudioBuffer) (model.TranscriptionResult, error) {
	cfg := &speechpb.RecognitionConfig{LanguageCode: g.language}
	content := buf.Data

	if pcm, info, err := audio.DecodeWAV(buf.Data); err == nil && info.Format.SampleWidth == 2 {
		cfg.Encoding = speechpb.RecognitionConfig_LINEAR16
		cfg.SampleRateHertz = int32(info.Format.SampleRate)
		cfg.AudioChannelCount = int32(info.Format.Channels)
		content = pcm
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: cfg,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: content},
		},
	})
	if err != nil {
		return failed(classifyGoogle(err), errors.Wrap(err, "google recognize")), nil
	}

	var parts []string
	for _, result := range resp.GetResults() {
		if alts := result.GetAlternatives(); len(alts) > 0 {
			parts = append(parts, alts[0].GetTranscript())
		}
	}
	return textResult(strings.Join(parts, " ")), nil
}

func classifyGoogle(err error) model.TranscriptionFailure {
	switch status.Code(err) {
	case codes.Unavailable, codes.Unauthenticated, codes.PermissionDenied,
		codes.DeadlineExceeded, codes.ResourceExhausted:
		return model.FailureProviderUnavailable
	}
	if isTransportError(err) {
		return model.FailureProviderUnavailable
	}
	return model.FailureProviderError
}
