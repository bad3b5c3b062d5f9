package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsingh-rishi/voice-bridge/audio/audiotest"
	"github.com/mrsingh-rishi/voice-bridge/model"
)

func TestEncodeWAV(t *testing.T) {
	pcm := audiotest.PCM(3200, 440, 16000) // 0.1 s

	wav, err := EncodeWAV(pcm, model.CanonicalWAV)
	require.NoError(t, err)
	assert.Len(t, wav, 44+len(pcm))
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))

	info, err := ParseWAV(wav)
	require.NoError(t, err)
	assert.Equal(t, 16000, info.Format.SampleRate)
	assert.Equal(t, 1, info.Format.Channels)
	assert.Equal(t, 2, info.Format.SampleWidth)
	assert.Equal(t, model.ContainerWAV, info.Format.Container)
	assert.Equal(t, 44, info.DataOffset)
	assert.Equal(t, len(pcm), info.DataSize)
	assert.InDelta(t, 0.1, info.Duration, 0.0001)
}

func TestEncodeWAVInvalidFormat(t *testing.T) {
	_, err := EncodeWAV([]byte{0, 0}, model.Format{SampleRate: 0, Channels: 1, SampleWidth: 2})
	assert.Error(t, err)

	_, err = EncodeWAV([]byte{0, 0}, model.Format{SampleRate: 16000, Channels: 0, SampleWidth: 2})
	assert.Error(t, err)

	_, err = EncodeWAV([]byte{0, 0}, model.Format{SampleRate: 16000, Channels: 1, SampleWidth: -1})
	assert.Error(t, err)
}

func TestDecodeWAVRoundTrip(t *testing.T) {
	pcm := audiotest.PCM(16000, 300, 16000)

	wav, err := EncodeWAV(pcm, model.CanonicalWAV)
	require.NoError(t, err)

	got, info, err := DecodeWAV(wav)
	require.NoError(t, err)
	assert.Equal(t, pcm, got)
	assert.True(t, IsCanonical(info.Format))
}

func TestParseWAVSkipsExtraChunks(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	wav, err := EncodeWAV(pcm, model.CanonicalWAV)
	require.NoError(t, err)

	// splice an odd-sized LIST chunk between fmt and data
	list := []byte{'L', 'I', 'S', 'T', 3, 0, 0, 0, 'a', 'b', 'c', 0}
	spliced := append([]byte{}, wav[:36]...)
	spliced = append(spliced, list...)
	spliced = append(spliced, wav[36:]...)
	binary.LittleEndian.PutUint32(spliced[4:8], uint32(len(spliced)-8))

	got, _, err := DecodeWAV(spliced)
	require.NoError(t, err)
	assert.Equal(t, pcm, got)
}

func TestParseWAVRejectsGarbage(t *testing.T) {
	_, err := ParseWAV([]byte{1, 2, 3})
	assert.Error(t, err)

	fake := make([]byte, 50)
	copy(fake, "FAKE")
	_, err = ParseWAV(fake)
	assert.Error(t, err)

	noData := make([]byte, 36)
	copy(noData, "RIFF")
	copy(noData[8:], "WAVEfmt ")
	binary.LittleEndian.PutUint32(noData[16:], 16)
	binary.LittleEndian.PutUint16(noData[20:], 1)
	_, err = ParseWAV(noData)
	assert.ErrorContains(t, err, "missing data chunk")
}

func TestResampleLinear(t *testing.T) {
	in := make([]int16, 44100)
	for i := range in {
		in[i] = int16(1000 * math.Sin(2*math.Pi*100*float64(i)/44100))
	}

	out := resampleLinear(in, 44100, 16000)
	assert.Len(t, out, 16000)

	same := resampleLinear(in, 16000, 16000)
	assert.Equal(t, in, same)
}

func TestDownmix(t *testing.T) {
	assert.Equal(t, []int16{150, -50}, downmix([]int16{100, 200, -100, 0}))
}
