package audio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsingh-rishi/voice-bridge/audio/audiotest"
	"github.com/mrsingh-rishi/voice-bridge/model"
)

func TestNormalizePCMBoundary(t *testing.T) {
	assert.Equal(t, 16000, MinPCMBytes(model.CanonicalPCM, DefaultMinDuration))

	buf, err := Normalize(audiotest.PCM(16000, 440, 16000), model.ContainerPCM, DefaultMinDuration)
	require.NoError(t, err)
	assert.Equal(t, model.CanonicalWAV, buf.Format)
	assert.Len(t, buf.Data, 44+16000)

	_, err = Normalize(make([]byte, 15999), model.ContainerPCM, DefaultMinDuration)
	require.Error(t, err)
	assert.Equal(t, model.KindRequestTooShort, model.KindOf(err))
}

func TestNormalizeRoundTrip(t *testing.T) {
	pcm := audiotest.PCM(32000, 220, 16000)

	buf, err := Normalize(pcm, model.ContainerPCM, DefaultMinDuration)
	require.NoError(t, err)

	assert.Equal(t, pcm, buf.Data[44:])
}

func TestNormalizeIdempotent(t *testing.T) {
	first, err := Normalize(audiotest.PCM(20000, 220, 16000), model.ContainerPCM, DefaultMinDuration)
	require.NoError(t, err)

	second, err := Normalize(first.Data, model.ContainerWAV, DefaultMinDuration)
	require.NoError(t, err)

	assert.Equal(t, first.Data[:44], second.Data[:44])
	assert.Equal(t, model.CanonicalWAV, second.Format)
}

func TestNormalizePassesUploadsThrough(t *testing.T) {
	upload := []byte("not really audio")

	buf, err := Normalize(upload, model.ContainerMP3, DefaultMinDuration)
	require.NoError(t, err)
	assert.Equal(t, upload, buf.Data)
	assert.Equal(t, model.ContainerMP3, buf.Format.Container)
}

func TestSpoolAndClose(t *testing.T) {
	dir := t.TempDir()
	buf := model.AudioBuffer{Data: []byte("RIFF"), Format: model.CanonicalWAV}

	tmp, err := Spool(dir, buf)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(tmp.Path()))
	assert.Equal(t, ".wav", filepath.Ext(tmp.Path()))

	data, err := os.ReadFile(tmp.Path())
	require.NoError(t, err)
	assert.Equal(t, buf.Data, data)

	require.NoError(t, tmp.Close())
	require.NoError(t, tmp.Close())
	_, err = os.Stat(tmp.Path())
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSpoolToleratesExternalRemoval(t *testing.T) {
	tmp, err := Spool(t.TempDir(), model.AudioBuffer{Data: []byte{1}})
	require.NoError(t, err)

	require.NoError(t, os.Remove(tmp.Path()))
	assert.NoError(t, tmp.Close())
}

func TestTranscodeSilentMP3(t *testing.T) {
	buf, err := Transcode(audiotest.SilentMP3(20), model.CanonicalWAV)
	require.NoError(t, err)

	info, err := ParseWAV(buf.Data)
	require.NoError(t, err)
	assert.Equal(t, 16000, info.Format.SampleRate)
	assert.Equal(t, 1, info.Format.Channels)
	assert.Equal(t, 2, info.Format.SampleWidth)
	assert.Positive(t, info.DataSize)
	assert.Equal(t, model.CanonicalWAV, buf.Format)
}

func TestTranscodeRejectsGarbage(t *testing.T) {
	_, err := Transcode([]byte("definitely not mp3"), model.CanonicalWAV)
	require.Error(t, err)
	assert.Equal(t, model.KindTranscodeError, model.KindOf(err))
}

func TestGateNoise(t *testing.T) {
	// 250 ms of low hiss followed by a loud tone
	hiss := make([]int16, 4000)
	for i := range hiss {
		if i%2 == 0 {
			hiss[i] = 50
		} else {
			hiss[i] = -50
		}
	}
	tone := bytesToSamples(audiotest.PCM(8000, 440, 16000))
	pcm := samplesToBytes(append(hiss, tone...))

	floor := NoiseFloor(pcm, 16000, 250*time.Millisecond)
	assert.InDelta(t, 50, floor, 0.01)

	gated := bytesToSamples(GateNoise(pcm, 16000, 250*time.Millisecond, 1.5))
	for _, s := range gated[:4000] {
		assert.Zero(t, s)
	}
	assert.Equal(t, tone[100], gated[4100])
}

func TestGateNoiseShortBufferUnchanged(t *testing.T) {
	pcm := audiotest.PCM(100, 440, 16000)
	assert.Equal(t, pcm, GateNoise(pcm, 16000, 250*time.Millisecond, 1.5))
}
