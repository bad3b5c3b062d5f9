// Package tts synthesizes reply text into speech through a hosted provider
// and shapes it for the device.
package tts

//go:generate mockgen -destination=../mocks/mock_tts.go -package=mocks github.com/mrsingh-rishi/voice-bridge/tts Synthesizer

import (
	"context"
	"fmt"

	"github.com/mrsingh-rishi/voice-bridge/audio"
	"github.com/mrsingh-rishi/voice-bridge/model"
)

// Synthesizer converts text to MP3 audio. Failures are returned as
// *model.Error with KindTTSProviderError.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) (model.AudioBuffer, error)
	Name() string
}

// Speak synthesizes text and returns it in the out container. MP3 is
// returned untouched; WAV is transcoded to the canonical device profile.
// Nothing is returned on failure.
func Speak(ctx context.Context, s Synthesizer, text, lang string, out model.Container) (model.AudioBuffer, error) {
	mp3, err := s.Synthesize(ctx, text, lang)
	if err != nil {
		return model.AudioBuffer{}, model.AsError(err, model.StageSynthesize)
	}
	if len(mp3.Data) == 0 {
		return model.AudioBuffer{}, model.NewError(model.KindTTSProviderError, model.StageSynthesize,
			fmt.Errorf("%s returned no audio", s.Name()))
	}

	switch out {
	case model.ContainerMP3, "":
		mp3.Format.Container = model.ContainerMP3
		return mp3, nil
	case model.ContainerWAV:
		return audio.Transcode(mp3.Data, model.CanonicalWAV)
	default:
		return model.AudioBuffer{}, model.NewError(model.KindBadRequest, model.StageSynthesize,
			fmt.Errorf("unsupported output container %q", out))
	}
}

func providerError(err error) error {
	return model.NewError(model.KindTTSProviderError, model.StageSynthesize, err)
}
