package audio

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadWAVFile decodes path into mono float32 samples in [-1, 1] plus its
// sample rate, for client file-transcription mode (the CLI: "one or
// more file paths as arguments"). Multi-channel files are averaged down to
// mono, matching the same channel-mixing DecimateToMono applies to live
// capture.
func ReadWAVFile(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("audio: open %s: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("audio: decode %s: %w", path, err)
	}
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("audio: %s is not a valid wav file", path)
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	scale := float32(int(1) << (buf.SourceBitDepth - 1))
	if buf.SourceBitDepth <= 0 {
		scale = math.MaxInt16
	}

	frameCount := len(buf.Data) / channels
	samples := make([]float32, frameCount)
	for i := 0; i < frameCount; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += float32(buf.Data[i*channels+c]) / scale
		}
		samples[i] = sum / float32(channels)
	}
	return samples, buf.Format.SampleRate, nil
}

// WriteWAVFile writes mono float32 samples in [-1, 1] to path as 16-bit PCM
// WAV, used for the client's saved-audio fallback when ffmpeg is not on
// PATH (persisted audio state, ext=wav).
func WriteWAVFile(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: create %s: %w", path, err)
	}
	defer f.Close()

	encoder := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	ints := make([]int, len(samples))
	for i, s := range samples {
		clamped := min(1, max(-1, s))
		ints[i] = int(clamped * math.MaxInt16)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           ints,
		SourceBitDepth: 16,
	}
	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("audio: write %s: %w", path, err)
	}
	return encoder.Close()
}
