// Package textnorm implements the deterministic text post-processing stage
// (C1): CJK/Latin spacing adjustment and Chinese-number -> Arabic-number
// inverse text normalisation.
package textnorm

import (
	"bufio"
	"os"
	"strings"
)

// Options controls which normalisation passes run: number conversion and
// CJK/Latin spacing adjustment can each be toggled independently.
type Options struct {
	FormatNum   bool
	FormatSpell bool
}

// Normaliser applies Normalise with a fixed set of extra idioms loaded once
// at startup, so callers don't need to
// thread the idiom list through every call.
type Normaliser struct {
	itn ITN
}

// NewNormaliser builds a Normaliser with the builtin idiom list plus any
// extras read from an idioms-extra.txt-style file (one idiom per line, '#'
// comments and blank lines ignored). extraPath may be empty.
func NewNormaliser(extraPath string) (*Normaliser, error) {
	n := &Normaliser{}
	if extraPath != "" {
		extra, err := loadIdiomsFile(extraPath)
		if err != nil {
			return nil, err
		}
		n.itn.ExtraIdioms = extra
	}
	return n, nil
}

// ConvertNumerals runs only the Chinese-number -> Arabic-number pass,
// exposed separately from Normalise for C6's text recomposition pipeline,
// which needs to interleave an optional punctuation model between the
// spacing and numeral passes.
func (n *Normaliser) ConvertNumerals(text string) string {
	return n.itn.Convert(text)
}

// Normalise runs the spacing and Chinese-number passes in a fixed order:
// adjust spacing first so digit runs are contiguous, convert numerals,
// then adjust spacing again since the
// conversion can change which characters flank a CJK/Latin boundary. Both
// passes are individually idempotent and side-effect free on failure: a
// classification panic inside the ITN scanner falls back to the original
// substring rather than propagating.
func (n *Normaliser) Normalise(text string, opts Options) string {
	out := text
	if opts.FormatSpell {
		out = AdjustSpace(out)
	}
	if opts.FormatNum {
		out = n.itn.Convert(out)
	}
	if opts.FormatSpell {
		out = AdjustSpace(out)
	}
	return out
}

func loadIdiomsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var idioms []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idioms = append(idioms, line)
	}
	return idioms, scanner.Err()
}
