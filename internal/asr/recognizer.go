// Package asr defines the recognition backend contract for the ASR worker
// process (C5) and a deterministic stub used by tests and by the server's
// own process-manager tests, since no concrete speech model ships in this
// repo (this repo's Non-goals: "the ASR engine itself").
package asr

// Recognizer decodes one Task's worth of PCM samples into tokens with
// per-token timestamps (seconds, relative to the start of the window). A
// real implementation wraps a sherpa-onnx-equivalent Go binding; this repo
// ships only the contract and a stub.
type Recognizer interface {
	Recognize(samples []float32, sampleRate int) (tokens []string, timestamps []float64, err error)
}

// StubRecognizer is a deterministic Recognizer for tests: it emits one
// token per fixed-size window of samples, with a timestamp at the window's
// start, independent of sample content. It never errors.
type StubRecognizer struct {
	// WindowSamples is the number of samples collapsed into one token.
	// Defaults to sampleRate (i.e. one token per second) if zero.
	WindowSamples int
	// Token is the text emitted for every token; defaults to "tok".
	Token string
}

func (s *StubRecognizer) Recognize(samples []float32, sampleRate int) ([]string, []float64, error) {
	window := s.WindowSamples
	if window <= 0 {
		window = sampleRate
	}
	token := s.Token
	if token == "" {
		token = "tok"
	}
	if window <= 0 {
		return nil, nil, nil
	}

	var tokens []string
	var timestamps []float64
	for start := 0; start < len(samples); start += window {
		tokens = append(tokens, token)
		timestamps = append(timestamps, float64(start)/float64(sampleRate))
	}
	return tokens, timestamps, nil
}
