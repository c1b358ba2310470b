// Package audio implements the client-side capture and resampling stage
// (C8): turning 48kHz float32 microphone frames, or a decoded audio file,
// into the 16kHz mono float32 stream the wire protocol carries.
package audio

// Frame is one callback's worth of interleaved multi-channel PCM samples
// captured at captureSampleRate (48kHz for a live microphone).
type Frame struct {
	Samples  []float32 // interleaved, Channels per frame
	Channels int
}

// MicSource is the capture primitive: a continuously running audio input
// stream delivering Frames on a channel from program start until Close, so
// opening/closing the device per hotkey press never adds latency. The
// actual OS/driver binding (PortAudio or equivalent) has no Go
// module in this pack, so it is treated the same way as the ASR engine and
// the OS hotkey hooks: contract only, satisfied by a real implementation
// outside this repo's scope, exercised in tests via a fake channel source.
type MicSource interface {
	Frames() <-chan Frame
	Close() error
}

// NullMicSource is a MicSource that never delivers a frame, the same
// placeholder role asr.StubRecognizer plays for the recognition backend:
// it lets a composition root construct a complete Recorder without a real
// PortAudio-equivalent binding, so pressing a configured hotkey starts and
// stops a session cleanly but records silence.
type NullMicSource struct {
	frames chan Frame
}

// NewNullMicSource returns a MicSource whose Frames channel is never
// written to.
func NewNullMicSource() *NullMicSource {
	return &NullMicSource{frames: make(chan Frame)}
}

func (n *NullMicSource) Frames() <-chan Frame {
	return n.frames
}

func (n *NullMicSource) Close() error {
	return nil
}

// DecimateToMono converts one captureSampleRate Frame to 16kHz mono by
// taking every factor-th frame (decimation, no anti-alias filter) and
// averaging its channels: for captureSampleRate 48000 and factor 3 the
// result is 16000Hz mono.
func DecimateToMono(f Frame, factor int) []float32 {
	if factor <= 0 {
		factor = 1
	}
	if f.Channels <= 0 {
		return nil
	}
	frameCount := len(f.Samples) / f.Channels
	outLen := (frameCount + factor - 1) / factor
	out := make([]float32, 0, outLen)
	for i := 0; i < frameCount; i += factor {
		base := i * f.Channels
		var sum float32
		for c := 0; c < f.Channels; c++ {
			sum += f.Samples[base+c]
		}
		out = append(out, sum/float32(f.Channels))
	}
	return out
}
