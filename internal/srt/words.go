// Package srt implements the client's auxiliary SRT subtitle generator
// (C10's file-transcription companion): given the server's
// token/timestamp stream for a transcribed file and the user's
// hand-corrected, line-broken text, it aligns each line to a run of tokens
// by a scouting-window heuristic and emits SRT cues. This is a client-side
// post-process off the real-time path; nothing here runs during a live
// mic session.
package srt

import "strings"

// Word is one ASR token with the time span it occupies, derived from a
// Result's parallel Tokens/Timestamps slices.
type Word struct {
	Token string
	Start float64
	End   float64
}

// wordPad is the fixed per-token duration assumed before the following
// token's start clamps it down.
const wordPad = 0.2

// WordsFromTokens builds a Word slice from a result's token and timestamp
// lists. tokens[i] is assumed to start at timestamps[i] and last wordPad
// seconds, clamped so it never runs past the next token's start.
func WordsFromTokens(tokens []string, timestamps []float64) []Word {
	n := len(tokens)
	if len(timestamps) < n {
		n = len(timestamps)
	}
	words := make([]Word, n)
	for i := 0; i < n; i++ {
		words[i] = Word{
			Token: strings.TrimSpace(strings.ReplaceAll(tokens[i], "@", "")),
			Start: timestamps[i],
			End:   timestamps[i] + wordPad,
		}
	}
	for i := 0; i < n-1; i++ {
		if words[i].End > words[i+1].Start {
			words[i].End = words[i+1].Start
		}
	}
	return words
}
