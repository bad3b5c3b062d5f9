package audio

import (
	"math"
	"time"
)

// NoiseFloor returns the RMS amplitude of the first lead of 16-bit PCM.
func NoiseFloor(pcm []byte, sampleRate int, lead time.Duration) float64 {
	samples := bytesToSamples(pcm)
	n := int(float64(sampleRate) * lead.Seconds())
	if n > len(samples) {
		n = len(samples)
	}
	if n == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples[:n] {
		f := float64(s)
		sum += f * f
	}
	return math.Sqrt(sum / float64(n))
}

// GateNoise measures the noise floor over the leading segment and silences
// samples quieter than floor*factor. Buffers no longer than the leading
// segment are returned unchanged since there is nothing to calibrate against.
func GateNoise(pcm []byte, sampleRate int, lead time.Duration, factor float64) []byte {
	samples := bytesToSamples(pcm)
	if int(float64(sampleRate)*lead.Seconds()) >= len(samples) {
		return pcm
	}

	threshold := NoiseFloor(pcm, sampleRate, lead) * factor
	if threshold <= 0 {
		return pcm
	}

	for i, s := range samples {
		if math.Abs(float64(s)) < threshold {
			samples[i] = 0
		}
	}
	return samplesToBytes(samples)
}
