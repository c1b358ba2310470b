// Package hotword implements the three hot-word replacement tables (C2):
// an exact-match Chinese table, a flexible-whitespace English table, and a
// regular-expression rule table, plus file-backed hot reload.
package hotword

import (
	"regexp"
	"sort"
	"strings"
)

// ZhTable does exact longest-key-first substring replacement. Chinese ASR
// output has no word-internal spacing ambiguity, so a plain substring scan
// (unlike the English table's flexible-whitespace matching) is sufficient.
type ZhTable struct {
	keys []string // sorted longest-first so overlapping keys resolve the same way every time
	vals map[string]string
}

func NewZhTable(entries map[string]string) *ZhTable {
	t := &ZhTable{vals: make(map[string]string, len(entries))}
	for k, v := range entries {
		if k == "" {
			continue
		}
		t.keys = append(t.keys, k)
		t.vals[k] = v
	}
	sort.Slice(t.keys, func(i, j int) bool { return len([]rune(t.keys[i])) > len([]rune(t.keys[j])) })
	return t
}

// Replace scans text left to right, at each position trying the longest
// matching key first so "李佳一" beats a shorter "李佳" entry that happens
// to be a prefix of it.
func (t *ZhTable) Replace(text string) string {
	if len(t.keys) == 0 || text == "" {
		return text
	}
	runes := []rune(text)
	var b strings.Builder
	i := 0
	for i < len(runes) {
		matched := false
		for _, k := range t.keys {
			kr := []rune(k)
			if i+len(kr) > len(runes) {
				continue
			}
			if string(runes[i:i+len(kr)]) == k {
				b.WriteString(t.vals[k])
				i += len(kr)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteRune(runes[i])
			i++
		}
	}
	return b.String()
}

// enEntry is one English hotword: the canonical display form, and a
// compiled flexible-whitespace, case-insensitive pattern built from its
// alphanumeric characters (punctuation in the key, e.g. "7-Zip"'s hyphen,
// is not part of the match pattern, since punctuation varies across
// ASR transcriptions of the same word).
type enEntry struct {
	canonical string
	pattern   *regexp.Regexp
}

// EnTable matches words regardless of the spurious inter-character spaces a
// character-level ASR tokenizer introduces ("c h a t g p t" should still hit
// "ChatGPT"), replacing the match with the hotword's canonical casing.
type EnTable struct {
	entries []enEntry
}

var nonWordRe = regexp.MustCompile(`[^0-9A-Za-z]`)

func NewEnTable(words []string) *EnTable {
	t := &EnTable{}
	for _, w := range words {
		key := nonWordRe.ReplaceAllString(w, "")
		if key == "" {
			continue
		}
		var b strings.Builder
		b.WriteString(`(?i)`)
		for i, r := range key {
			if i > 0 {
				b.WriteString(`\s*`)
			}
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
		re, err := regexp.Compile(b.String())
		if err != nil {
			continue
		}
		t.entries = append(t.entries, enEntry{canonical: w, pattern: re})
	}
	return t
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// Replace applies every hotword's pattern, keeping a match only when its
// boundary isn't inside a longer word (word-boundary lookaround checks,
// reimplemented without lookaround since RE2 lacks it).
func (t *EnTable) Replace(text string) string {
	for _, e := range t.entries {
		text = replaceWithBoundaries(text, e.pattern, e.canonical)
	}
	return text
}

func replaceWithBoundaries(text string, re *regexp.Regexp, canonical string) string {
	locs := re.FindAllStringIndex(text, -1)
	if locs == nil {
		return text
	}
	runes := []rune(text)
	byteToRune := make(map[int]int, len(runes)+1)
	ri := 0
	for bi := range text {
		byteToRune[bi] = ri
		ri++
	}
	byteToRune[len(text)] = ri

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		if start < last {
			continue
		}
		startRune, endRune := byteToRune[start], byteToRune[end]
		leftOK := startRune == 0 || !isASCIILetter(runes[startRune-1])
		rightOK := endRune == len(runes) || !isASCIILetter(runes[endRune])
		if !leftOK || !rightOK {
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(canonical)
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

// RuleTable applies ordered regex -> replacement pairs, e.g. "毫安时" ->
// "mAh". Replacement strings may use Go's $1-style backreferences.
type RuleTable struct {
	rules []ruleEntry
}

type ruleEntry struct {
	pattern *regexp.Regexp
	replace string
}

func NewRuleTable(pairs [][2]string) *RuleTable {
	t := &RuleTable{}
	for _, p := range pairs {
		re, err := regexp.Compile(p[0])
		if err != nil {
			continue
		}
		t.rules = append(t.rules, ruleEntry{pattern: re, replace: pythonBackrefToGo(p[1])})
	}
	return t
}

func (t *RuleTable) Replace(text string) string {
	for _, r := range t.rules {
		text = r.pattern.ReplaceAllString(text, r.replace)
	}
	return text
}

// pythonBackrefToGo converts \1-style backreferences (as written in a
// hot-rule.txt file, matching Python re's substitution syntax) to Go's
// $1-style ReplaceAllString syntax.
func pythonBackrefToGo(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
			b.WriteByte('$')
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
