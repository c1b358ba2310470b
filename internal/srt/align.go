package srt

import (
	"errors"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

// chineseNumeralChars are tokens the scout never penalises on miss: the
// original source skips them because worker output sometimes renders a
// spoken number as a single merged token ("十二") where the line-broken
// text spells it digit by digit, so a miss here is not evidence of
// misalignment.
const chineseNumeralChars = "零一二三四五六七八九十百千万幺两点时分秒之"

// fuzzyEditRatio is the maximum Levenshtein distance, as a fraction of the
// shorter string's rune length, at which a token is still considered a hit
// against the scout's remaining text. Exact substring containment is tried
// first; this is the fallback for tokens an ASR misrecognition shifted by a
// character or two, using matchr's edit-distance scoring instead of strict
// containment.
const fuzzyEditRatio = 0.34

// ErrNoAlignment is returned when the scouting pass runs off the end of the
// word stream without ever finding a starting point for a line.
var ErrNoAlignment = errors.New("srt: could not align any line to the token stream")

// Cue is one subtitle entry: a zero-based index, a time span in seconds,
// and the original (unstripped) line text.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// scout is one candidate starting point the scouting pass has probed,
// carrying the hit/miss tally used to rank candidates.
type scout struct {
	start int
	hit   int
	miss  int
	text  string // remaining, not-yet-consumed normalised line text
}

func (s scout) score() int { return s.hit - s.miss }

// stripForMatch lowercases and removes whitespace, digits and common
// punctuation before comparing a line against the token stream.
func stripForMatch(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsSpace(r):
		case unicode.IsDigit(r):
		case strings.ContainsRune(",.?:%，。？、", r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isChineseNumeral reports whether token consists solely of characters the
// scout treats as miss-tolerant.
func isChineseNumeral(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if !strings.ContainsRune(chineseNumeralChars, r) {
			return false
		}
	}
	return true
}

// tokenHit reports whether word's token is present in text, trying an exact
// substring match first and falling back to a fuzzy Levenshtein comparison
// against each same-length window of text. On a fuzzy hit it returns the
// exact substring that matched so the caller can remove precisely that
// occurrence.
func tokenHit(token, text string) (matched string, ok bool) {
	token = strings.ToLower(token)
	if token == "" {
		return "", false
	}
	if strings.Contains(text, token) {
		return token, true
	}
	runes := []rune(text)
	tlen := len([]rune(token))
	if tlen == 0 || len(runes) < tlen {
		return "", false
	}
	best := -1
	bestDist := 1 << 30
	for i := 0; i+tlen <= len(runes); i++ {
		window := string(runes[i : i+tlen])
		dist, err := matchr.Levenshtein(token, window)
		if err != nil {
			continue
		}
		if dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	if float64(bestDist)/float64(tlen) <= fuzzyEditRatio {
		return string(runes[best : best+tlen]), true
	}
	return "", false
}

// getScout runs the scouting pass starting at
// cursor: it finds where line first begins to appear in words, then
// consumes a run of matching tokens, tolerating up to 5 consecutive misses
// before giving up. Each pass that scores at least 2 hits starts another
// pass one word past its own start, up to 6 passes in all, keeping
// whichever pass scores highest.
func getScout(line string, words []Word, cursor int) (scout, bool) {
	n := len(words)
	normalized := stripForMatch(line)

	var best scout
	haveBest := false
	attempts := 1

	for attempt := 0; attempt < attempts; attempt++ {
		s := scout{start: cursor, text: normalized}

		for s.start < n && s.text != "" {
			if _, ok := tokenHit(words[s.start].Token, s.text); ok {
				break
			}
			s.start++
		}
		if s.start >= n {
			break
		}

		tolerance := 5
		pos := s.start
		for pos < n && tolerance > 0 && s.text != "" {
			tok := words[pos].Token
			if matched, ok := tokenHit(tok, s.text); ok {
				s.text = strings.Replace(s.text, matched, "", 1)
				s.hit++
				pos++
				tolerance = 5
				continue
			}
			if !isChineseNumeral(tok) {
				tolerance--
				s.miss++
			}
			pos++
		}

		if !haveBest || s.score() > best.score() {
			best = s
			haveBest = true
		}
		if s.hit >= 2 && attempts < 6 {
			attempts++
			cursor = s.start + 1
		}
	}

	return best, haveBest
}

// Align aligns each non-blank line in lines to a contiguous run of words,
// returning one Cue per line in order, using the scouting
// window heuristic: poor-scoring lines cause the cursor to retreat a short
// distance before the next line is scouted, since a weak match usually
// means the previous cue's tail ran long rather than that the words were
// skipped.
func Align(lines []string, words []Word) ([]Cue, error) {
	var cues []Cue
	cursor := 0
	n := len(words)
	index := 0

	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		s, ok := getScout(line, words, cursor)
		if !ok {
			return cues, ErrNoAlignment
		}
		cursor = s.start
		if cursor >= n {
			break
		}

		start := words[cursor].Start
		end := words[cursor].End
		probeText := stripForMatch(line)
		probe := cursor
		const lookahead = 8
		for probe-cursor < lookahead && probe < n {
			w := strings.Trim(strings.ToLower(words[probe].Token), " ,.?!，。？！@")
			end2 := words[probe].End
			probe++
			if matched, ok := tokenHit(w, probeText); ok {
				probeText = strings.Replace(probeText, matched, "", 1)
				end = end2
				cursor = probe
				if probeText == "" {
					break
				}
			}
		}

		cues = append(cues, Cue{Index: index, Start: start, End: end, Text: line})
		index++

		if s.score() <= 0 {
			cursor -= 20
			if cursor < 0 {
				cursor = 0
			}
		}
	}

	return cues, nil
}
