package textnorm

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ITN converts spoken Chinese numerals inside text to Arabic digits, e.g.
// "幺九二点幺六八" -> "192.168". It is a from-scratch scanner over the
// candidate character classes, since the equivalent lookaround-heavy regex
// cannot be expressed in Go's RE2 engine; the classification sub-patterns
// (pure digit / value / percent / fraction / ratio / time / date) below are
// plain regexes with no backreferences or lookaround, using optional
// groups in place of conditional groups.
type ITN struct {
	ExtraIdioms []string
}

const commonUnits = "个只分万亿秒"
const digitExtChars = "零幺一二两三四五六七八九十百千万亿点比"
const dateUnitChars = "年月日号分"

var (
	pureNumRe    = regexp.MustCompile(`^[零幺一二三四五六七八九]+(点[零幺一二三四五六七八九]+)* *[a-zA-Z个只分万亿秒]?$`)
	valueNumRe   = regexp.MustCompile(`^十?(零?[一二两三四五六七八九十][十百千万]{1,2})*零?[一二三四五六七八九]?(点[零一二三四五六七八九]+)? *[a-zA-Z个只分万亿秒]?$`)
	percentRe    = regexp.MustCompile(`^百分之[零一二三四五六七八九十百千万]+(点[零一二三四五六七八九]+)?$`)
	fractionRe   = regexp.MustCompile(`^([零一二三四五六七八九十百千万]+(点[零一二三四五六七八九]+)?)分之([零一二三四五六七八九十百千万]+(点[零一二三四五六七八九]+)?)$`)
	ratioRe      = regexp.MustCompile(`^([零一二三四五六七八九十百千万]+(点[零一二三四五六七八九]+)?)比([零一二三四五六七八九十百千万]+(点[零一二三四五六七八九]+)?)$`)
	timeValueRe  = regexp.MustCompile(`^[零一二三四五六七八九十]+点([零一二三四五六七八九十]+分)([零一二三四五六七八九十]+秒)?$`)
	dateValueRe  = regexp.MustCompile(`^([零一二三四五六七八九]+年)?([一二三四五六七八九十]+月)([一二三四五六七八九十]+[日号])$`)
)

var numMapper = map[rune]string{
	'零': "0", '一': "1", '幺': "1", '二': "2", '两': "2", '三': "3",
	'四': "4", '五': "5", '六': "6", '七': "7", '八': "8", '九': "9",
}

var valueMapper = map[rune]int{
	'零': 0, '一': 1, '二': 2, '两': 2, '三': 3, '四': 4, '五': 5,
	'六': 6, '七': 7, '八': 8, '九': 9, '十': 10, '百': 100, '千': 1000, '万': 10000,
}

// Convert rewrites Chinese numerals in text to Arabic form.
func (it ITN) Convert(text string) string {
	runes := []rune(text)
	spans := findIdiomSpans(runes, it.ExtraIdioms)
	var out strings.Builder
	n := len(runes)
	i := 0
	for i < n {
		headStart := i
		headEnd := i
		bodyStart := i
		if isASCIILetter(runes[i]) {
			j := i + 1
			for j < n && runes[j] == ' ' {
				j++
			}
			if j < n && isDigitExt(runes[j]) {
				headEnd = j
				bodyStart = j
			}
		}
		if bodyStart == i && !isDigitExt(runes[i]) {
			out.WriteRune(runes[i])
			i++
			continue
		}
		k := bodyStart
		for k < n {
			r := runes[k]
			if isDigitExt(r) {
				k++
				continue
			}
			if r == '分' && k+1 < n && runes[k+1] == '之' {
				k += 2
				continue
			}
			if k > bodyStart && strings.ContainsRune(dateUnitChars, r) {
				k++
				continue
			}
			break
		}
		if k < n && k > bodyStart {
			r := runes[k]
			if isASCIILetter(r) || strings.ContainsRune(commonUnits, r) {
				k++
			}
		}
		if k == bodyStart {
			out.WriteRune(runes[i])
			i++
			continue
		}
		body := string(runes[bodyStart:k])
		head := string(runes[headStart:headEnd])
		converted := convertCandidate(body, spans, bodyStart, k)
		out.WriteString(head)
		out.WriteString(converted)
		i = k
	}
	return out.String()
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigitExt(r rune) bool {
	return strings.ContainsRune(digitExtChars, r)
}

func convertCandidate(body string, spans []idiomSpan, start, end int) (result string) {
	defer func() {
		if recover() != nil {
			result = body
		}
	}()
	if overlapsIdiom(spans, start, end) {
		return body
	}
	switch {
	case pureNumRe.MatchString(stripCommonUnits(body)):
		return convertPureNum(body, false)
	case valueNumRe.MatchString(stripCommonUnits(body)):
		return convertValueNum(body)
	case percentRe.MatchString(body):
		return convertPercentValue(body)
	case fractionRe.MatchString(body):
		return convertFractionValue(body)
	case ratioRe.MatchString(body):
		return convertRatioValue(body)
	case timeValueRe.MatchString(body):
		return convertTimeValue(body)
	case dateValueRe.MatchString(body):
		return convertDateValue(body)
	default:
		return body
	}
}

func stripCommonUnits(s string) string {
	r := []rune(s)
	start, end := 0, len(r)
	for start < end && strings.ContainsRune(commonUnits, r[start]) {
		start++
	}
	for end > start && strings.ContainsRune(commonUnits, r[end-1]) {
		end--
	}
	return string(r[start:end])
}

func stripUnit(s string) (stripped, unit string) {
	r := []rune(s)
	end := len(r)
	for end > 0 && (strings.ContainsRune(commonUnits, r[end-1]) || unicode.IsLetter(r[end-1]) && r[end-1] < 128) {
		end--
	}
	for end > 0 && r[end-1] == ' ' {
		end--
	}
	return string(r[:end]), string(r[end:])
}

func convertPureNum(original string, strict bool) string {
	stripped, unit := stripUnit(original)
	if stripped == "一" && !strict {
		return original
	}
	if stripped == "" {
		return ""
	}
	var b strings.Builder
	for _, c := range stripped {
		if c == '点' {
			b.WriteByte('.')
			continue
		}
		d, ok := numMapper[c]
		if !ok {
			return original
		}
		b.WriteString(d)
	}
	return b.String() + unit
}

func convertValueNum(original string) string {
	stripped, unit := stripUnit(original)
	if !strings.Contains(stripped, "点") {
		stripped += "点"
	}
	parts := strings.SplitN(stripped, "点", 2)
	intPart, decPart := parts[0], parts[1]
	if intPart == "" {
		return original
	}
	value, temp, base := 0, 0, 1
	for _, c := range intPart {
		switch {
		case c == '十':
			if temp == 0 {
				temp = 10
			} else {
				temp = valueMapper[c] * temp
			}
			base = 1
		case c == '零':
			base = 1
		case strings.ContainsRune("一二两三四五六七八九", c):
			temp += valueMapper[c]
		case c == '万':
			value += temp
			value *= valueMapper[c]
			base = valueMapper[c] / 10
			temp = 0
		case c == '百' || c == '千':
			value += temp * valueMapper[c]
			base = valueMapper[c] / 10
			temp = 0
		}
	}
	value += temp * base
	final := strconv.Itoa(value)
	decStr := convertPureNum(decPart, true)
	if decStr != "" {
		final += "." + decStr
	}
	return final + unit
}

func convertFractionValue(original string) string {
	parts := strings.SplitN(original, "分之", 2)
	return convertValueNum(parts[1]) + "/" + convertValueNum(parts[0])
}

func convertPercentValue(original string) string {
	r := []rune(original)
	return convertValueNum(string(r[3:])) + "%"
}

func convertRatioValue(original string) string {
	parts := strings.SplitN(original, "比", 2)
	return convertValueNum(parts[0]) + ":" + convertValueNum(parts[1])
}

func convertTimeValue(original string) string {
	res := splitAny(original, "点分秒")
	var b strings.Builder
	b.WriteString(convertValueNum(res[0]))
	b.WriteString(":")
	b.WriteString(convertValueNum(res[1]))
	if len(res) > 2 {
		b.WriteString(":")
		b.WriteString(convertValueNum(res[2]))
	}
	if len(res) > 3 {
		b.WriteString(".")
		b.WriteString(convertPureNum(res[3], false))
	}
	return b.String()
}

func convertDateValue(original string) string {
	var b strings.Builder
	rest := original
	if idx := strings.Index(rest, "年"); idx >= 0 {
		year := rest[:idx]
		rest = rest[idx+len("年"):]
		b.WriteString(convertPureNum(year, false))
		b.WriteString("年")
	}
	if idx := strings.Index(rest, "月"); idx >= 0 {
		month := rest[:idx]
		rest = rest[idx+len("月"):]
		b.WriteString(convertValueNum(month))
		b.WriteString("月")
	}
	if idx := strings.Index(rest, "日"); idx >= 0 {
		day := rest[:idx]
		b.WriteString(convertValueNum(day))
		b.WriteString("日")
	} else if idx := strings.Index(rest, "号"); idx >= 0 {
		day := rest[:idx]
		b.WriteString(convertValueNum(day))
		b.WriteString("号")
	}
	return b.String()
}

func splitAny(s, seps string) []string {
	var out []string
	var cur strings.Builder
	for _, r := range s {
		if strings.ContainsRune(seps, r) {
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
