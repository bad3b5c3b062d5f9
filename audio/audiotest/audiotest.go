// Package audiotest provides synthetic audio for tests.
package audiotest

import (
	"encoding/binary"
	"math"
)

// frame is one MPEG-1 Layer III frame: 128 kbit/s, 44.1 kHz, mono, no CRC,
// with zeroed side info and main data. It decodes to 1152 samples of silence.
var frame = func() []byte {
	const size = 144 * 128000 / 44100
	f := make([]byte, size)
	copy(f, []byte{0xFF, 0xFB, 0x90, 0xC0})
	return f
}()

// SilentMP3 returns n frames of silent MP3 audio.
func SilentMP3(n int) []byte {
	out := make([]byte, 0, len(frame)*n)
	for i := 0; i < n; i++ {
		out = append(out, frame...)
	}
	return out
}

// PCM returns n bytes of little-endian 16-bit PCM carrying a sine tone.
// n is rounded down to a whole sample.
func PCM(n int, freq float64, sampleRate int) []byte {
	out := make([]byte, n-n%2)
	for i := 0; i < len(out)/2; i++ {
		v := 8000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}
