// Package audio handles format conversion for the voice pipeline.
// It wraps raw PCM in WAV headers, spools buffers to scoped temporary files,
// applies the optional ambient-noise gate and transcodes synthesized MP3 into
// the WAV profile the device plays back.
package audio
