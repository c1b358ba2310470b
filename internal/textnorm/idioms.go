package textnorm

import "strings"

// builtinIdioms is a fixed allow-list: common four-character phrases whose
// digit-looking characters must never be mistaken for a number and
// converted.
var builtinIdioms = []string{
	"正经八百", "五零二落", "五零四散",
	"五十步笑百步", "乌七八糟", "污七八糟", "四百四病", "思绪万千",
	"十有八九", "十之八九", "三十而立", "三十六策", "三十六计", "三十六行",
	"三五成群", "三百六十行", "三六九等",
	"七老八十", "七零八落", "七零八碎", "七七八八", "乱七八遭", "乱七八糟", "略知一二", "零零星星", "零七八碎",
	"九九归一", "二三其德", "二三其意", "无银三百两", "八九不离十",
	"百分之百", "年三十", "烂七八糟", "一点一滴", "路易十六", "九三学社", "五四运动", "入木三分",
	// supplemented: both phrases are named by the allow-list example but
	// absent from the upstream list.
	"七上八下", "三心二意",
}

// idiomSpan is the rune range [Start, End) of an idiom's first occurrence
// in a piece of text, mirroring Python's str.find (first match only).
type idiomSpan struct {
	Start, End int
}

// findIdiomSpans locates the first occurrence of every idiom (builtin plus
// any user-supplied extras) in text, by rune offset.
func findIdiomSpans(text []rune, extra []string) []idiomSpan {
	s := string(text)
	spans := make([]idiomSpan, 0, len(builtinIdioms)+len(extra))
	seen := func(idiom string) {
		if idiom == "" {
			return
		}
		byteIdx := strings.Index(s, idiom)
		if byteIdx < 0 {
			return
		}
		start := len([]rune(s[:byteIdx]))
		spans = append(spans, idiomSpan{Start: start, End: start + len([]rune(idiom))})
	}
	for _, idiom := range builtinIdioms {
		seen(idiom)
	}
	for _, idiom := range extra {
		seen(idiom)
	}
	return spans
}

// overlapsIdiom reports whether any idiom's recorded start position falls
// within [start-2, end) (clamped at 0), the same test a replace-style ITN pass performs
// before allowing a numeral substitution to go ahead.
func overlapsIdiom(spans []idiomSpan, start, end int) bool {
	if start < 2 {
		start = 0
	} else {
		start -= 2
	}
	for _, sp := range spans {
		if sp.Start >= start && sp.Start < end {
			return true
		}
	}
	return false
}
