package textnorm

import "strings"

// CollapseArtefactSpaces removes the single space that joining
// character-level tokens leaves after any non-alphanumeric character when
// the following character (if any) is also non-alphanumeric, e.g.
// "你 好 ， 世 界" -> "你好，世界" while "你好 ChatGPT" is untouched.
// The equivalent negative lookahead has a direct manual equivalent (peek
// at the next rune) so no hand-rolled scanner is needed here, unlike the
// ITN pattern.
func CollapseArtefactSpaces(text string) string {
	runes := []rune(text)
	var b strings.Builder
	n := len(runes)
	for i := 0; i < n; i++ {
		r := runes[i]
		b.WriteRune(r)
		if isAlnum(r) {
			continue
		}
		if i+1 < n && runes[i+1] == ' ' {
			next := rune(0)
			hasNext := i+2 < n
			if hasNext {
				next = runes[i+2]
			}
			if !hasNext || !isAlnum(next) {
				i++ // skip the space
			}
		}
	}
	return b.String()
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
