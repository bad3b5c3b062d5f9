package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/mrsingh-rishi/voice-bridge/model"
)

const wavHeaderSize = 44

// WAVHeader is the canonical 44-byte RIFF/WAVE header for PCM data
type WAVHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16 // NumChannels * BitsPerSample / 8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// WAVInfo is the metadata read from a WAV header
type WAVInfo struct {
	Format     model.Format `json:"format"`
	DataOffset int          `json:"data_offset"`
	DataSize   int          `json:"data_size"`
	Duration   float64      `json:"duration_seconds"`
}

// EncodeWAV wraps little-endian PCM bytes in a WAV header describing f
func EncodeWAV(pcm []byte, f model.Format) ([]byte, error) {
	if f.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", f.Channels)
	}
	if f.SampleWidth <= 0 {
		return nil, fmt.Errorf("sample width must be positive, got %d", f.SampleWidth)
	}

	numChannels := uint16(f.Channels)
	bitsPerSample := uint16(f.SampleWidth * 8)
	dataSize := uint32(len(pcm))

	header := WAVHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   numChannels,
		SampleRate:    uint32(f.SampleRate),
		ByteRate:      uint32(f.SampleRate) * uint32(numChannels) * uint32(bitsPerSample) / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(pcm)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	buf.Write(pcm)

	return buf.Bytes(), nil
}

// ParseWAV reads the header of a RIFF/WAVE file. Chunks other than
// "fmt " and "data" (LIST, fact, ...) are skipped.
func ParseWAV(data []byte) (*WAVInfo, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("WAV data too short: need at least 12 bytes, got %d", len(data))
	}
	if string(data[0:4]) != "RIFF" {
		return nil, fmt.Errorf("invalid WAV file: missing RIFF header")
	}
	if string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("invalid WAV file: missing WAVE format")
	}

	var (
		info    WAVInfo
		haveFmt bool
		pos     = 12
	)
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return nil, fmt.Errorf("invalid WAV file: truncated fmt chunk")
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return nil, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", audioFormat)
			}
			info.Format = model.Format{
				Channels:    int(binary.LittleEndian.Uint16(data[body+2 : body+4])),
				SampleRate:  int(binary.LittleEndian.Uint32(data[body+4 : body+8])),
				SampleWidth: int(binary.LittleEndian.Uint16(data[body+14:body+16])) / 8,
				Container:   model.ContainerWAV,
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("invalid WAV file: data chunk before fmt chunk")
			}
			if body+size > len(data) {
				size = len(data) - body
			}
			info.DataOffset = body
			info.DataSize = size
			if bps := info.Format.BytesPerSecond(); bps > 0 {
				info.Duration = float64(size) / float64(bps)
			}
			return &info, nil
		}

		// chunks are word aligned
		pos = body + size + size%2
	}

	if !haveFmt {
		return nil, fmt.Errorf("invalid WAV file: missing fmt chunk")
	}
	return nil, fmt.Errorf("invalid WAV file: missing data chunk")
}

// DecodeWAV returns the PCM payload of a WAV file and its metadata
func DecodeWAV(data []byte) ([]byte, *WAVInfo, error) {
	info, err := ParseWAV(data)
	if err != nil {
		return nil, nil, err
	}
	return data[info.DataOffset : info.DataOffset+info.DataSize], info, nil
}

// IsCanonical reports whether f matches the device profile
func IsCanonical(f model.Format) bool {
	return f.SampleRate == model.CanonicalWAV.SampleRate &&
		f.Channels == model.CanonicalWAV.Channels &&
		f.SampleWidth == model.CanonicalWAV.SampleWidth
}

func bytesToSamples(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples
}

func samplesToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
