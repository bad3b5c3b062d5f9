package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/mrsingh-rishi/voice-bridge/model"
)

// Transcode decodes MP3 and re-encodes it as mono 16-bit WAV at the
// target sample rate. The device cannot decode MP3 itself.
func Transcode(data []byte, target model.Format) (model.AudioBuffer, error) {
	if target.Channels != 1 || target.SampleWidth != 2 {
		return model.AudioBuffer{}, model.NewError(model.KindTranscodeError, model.StageSynthesize,
			fmt.Errorf("unsupported target profile %dch/%dbit", target.Channels, target.SampleWidth*8))
	}

	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return model.AudioBuffer{}, model.NewError(model.KindTranscodeError, model.StageSynthesize,
			fmt.Errorf("open mp3: %w", err))
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return model.AudioBuffer{}, model.NewError(model.KindTranscodeError, model.StageSynthesize,
			fmt.Errorf("decode mp3: %w", err))
	}
	// go-mp3 always emits interleaved 16-bit stereo
	if len(raw) == 0 || len(raw)%4 != 0 {
		return model.AudioBuffer{}, model.NewError(model.KindTranscodeError, model.StageSynthesize,
			fmt.Errorf("unexpected decoded length %d", len(raw)))
	}

	mono := downmix(bytesToSamples(raw))
	out := resampleLinear(mono, dec.SampleRate(), target.SampleRate)

	format := model.Format{
		SampleRate:  target.SampleRate,
		Channels:    1,
		SampleWidth: 2,
		Container:   model.ContainerWAV,
	}
	wav, err := EncodeWAV(samplesToBytes(out), format)
	if err != nil {
		return model.AudioBuffer{}, model.NewError(model.KindTranscodeError, model.StageSynthesize, err)
	}
	return model.AudioBuffer{Data: wav, Format: format}, nil
}

func downmix(stereo []int16) []int16 {
	mono := make([]int16, len(stereo)/2)
	for i := range mono {
		l := int(stereo[2*i])
		r := int(stereo[2*i+1])
		mono[i] = int16((l + r) / 2)
	}
	return mono
}

func resampleLinear(in []int16, from, to int) []int16 {
	if from == to || len(in) == 0 {
		return in
	}

	n := int(int64(len(in)) * int64(to) / int64(from))
	out := make([]int16, n)
	step := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = int16(float64(in[j])*(1-frac) + float64(in[j+1])*frac)
	}
	return out
}
