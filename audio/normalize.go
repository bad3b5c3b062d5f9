package audio

import (
	"fmt"
	"math"

	"github.com/mrsingh-rishi/voice-bridge/model"
)

// DefaultMinDuration is the shortest PCM payload worth a network round trip.
const DefaultMinDuration = 0.5

// MinPCMBytes returns the byte count of minDuration seconds of audio in f.
func MinPCMBytes(f model.Format, minDuration float64) int {
	return int(math.Ceil(float64(f.SampleRate*f.SampleWidth) * minDuration))
}

// Normalize turns an inbound payload into something the transcription
// provider accepts.
//
// Raw PCM is assumed to be CanonicalPCM (agreed out of band with the device)
// and is wrapped in a WAV header without resampling. Anything else is treated
// as an already decodable container and passed through untouched.
func Normalize(raw []byte, src model.Container, minDuration float64) (model.AudioBuffer, error) {
	if src != model.ContainerPCM {
		buf := model.AudioBuffer{Data: raw, Format: model.Format{Container: src}}
		if info, err := ParseWAV(raw); err == nil {
			buf.Format = info.Format
		}
		return buf, nil
	}

	need := MinPCMBytes(model.CanonicalPCM, minDuration)
	if len(raw) < need {
		return model.AudioBuffer{}, model.NewError(model.KindRequestTooShort, model.StageNormalize,
			fmt.Errorf("got %d bytes of PCM, need at least %d", len(raw), need))
	}

	wav, err := EncodeWAV(raw, model.CanonicalWAV)
	if err != nil {
		return model.AudioBuffer{}, model.NewError(model.KindInternal, model.StageNormalize, err)
	}
	return model.AudioBuffer{Data: wav, Format: model.CanonicalWAV}, nil
}
