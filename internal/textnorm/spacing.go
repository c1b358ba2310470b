package textnorm

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// spacingPattern finds runs of ASCII letters/digits/spaces (as produced by
// joining character-level ASR tokens with spaces) together with at most one
// adjacent CJK or Latin/digit flank on either side. RE2 has no lookaround,
// but this particular pattern needs none: the boundary checks are plain
// string indexing, reproduced below.
var spacingPattern = regexp.MustCompile(`(?i)([\x{4e00}-\x{9fa5}]|[a-z0-9]+\s)?([a-z0-9 ]+)([\x{4e00}-\x{9fa5}]|[a-z0-9]+)?`)

// AdjustSpace collapses the artificial single-space separators that a
// character-level token stream leaves between ASCII letters/digits, and
// normalises spacing at CJK/Latin boundaries.
func AdjustSpace(text string) string {
	matches := spacingPattern.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return text
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		if m[0] == m[1] {
			continue
		}
		b.WriteString(text[last:m[0]])
		b.WriteString(adjustSpaceReplace(text, m))
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

func adjustSpaceReplace(full string, m []int) string {
	hasLeft := m[2] != -1
	var left string
	if hasLeft {
		left = full[m[2]:m[3]]
	}
	center := full[m[4]:m[5]]
	hasRight := m[6] != -1
	var right string
	if hasRight {
		right = full[m[6]:m[7]]
	}

	final := collapseCenter(center)

	if hasLeft {
		leftNoDigitEdges := strings.Trim(left, "0123456789") == left
		centerNoLeadingDigit := strings.TrimLeft(center, "0123456789") == center
		leftWord := strings.TrimRight(left, " \t\r\n")
		// A one-character Latin left flank followed by a one-character token
		// belongs to the same single-character run, so it joins without a space.
		fields := strings.Fields(center)
		sameRun := leftWord != left && len(leftWord) == 1 && len(fields) > 0 && len(fields[0]) == 1
		if leftNoDigitEdges && centerNoLeadingDigit && !sameRun {
			final = " " + final
		}
		final = leftWord + final
	} else if m[4] > 0 {
		prevR, _ := utf8.DecodeLastRuneInString(full[:m[4]])
		if isCJK(prevR) && strings.TrimLeft(center, "0123456789") == center {
			final = " " + final
		}
	}

	if hasRight {
		if strings.TrimRight(center, "0123456789") == center {
			final += " "
		}
		final += strings.TrimLeft(right, " \t\r\n")
	}
	return final
}

// collapseCenter reproduces re.sub(r'((\d) )?(\b\w) ?(?!\w{2})', r'\2\3', ...):
// lone single-character tokens separated by the join-space collapse together
// ("1 9 2" -> "192", "A B" -> "AB"); tokens of two or more characters, which
// can only arise from a real multi-character word, keep their separating
// space.
func collapseCenter(center string) string {
	fields := strings.Fields(center)
	if len(fields) == 0 {
		return strings.TrimSpace(center)
	}
	var out []string
	cluster := ""
	for _, f := range fields {
		if len(f) == 1 {
			cluster += f
			continue
		}
		if cluster != "" {
			out = append(out, cluster)
			cluster = ""
		}
		out = append(out, f)
	}
	if cluster != "" {
		out = append(out, cluster)
	}
	return strings.Join(out, " ")
}

func isCJK(r rune) bool {
	return r >= 0x4e00 && r <= 0x9fa5
}
