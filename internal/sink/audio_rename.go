package sink

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// forbiddenPathChars matches characters that are invalid in a Windows
// filename and awkward on others.
var forbiddenPathChars = regexp.MustCompile(`[\\/:"*?<>|]`)

// RenameAudio renames the WAV file at oldPath to
// "(yyyymmdd-hhmmss)<first nameLen runes of text>.<ext>" in the same
// directory, sanitising filesystem-unsafe characters out of the text
// prefix. oldPath == "" is a no-op (save_audio disabled for this session)
// and returns "", nil.
func RenameAudio(oldPath, text string, timeStart float64, nameLen int) (string, error) {
	if oldPath == "" {
		return "", nil
	}
	if _, err := os.Stat(oldPath); err != nil {
		return "", err
	}

	runes := []rune(text)
	if nameLen >= 0 && len(runes) > nameLen {
		runes = runes[:nameLen]
	}
	stem := "(" + time.Unix(int64(timeStart), 0).Format("20060102-150405") + ")" + string(runes)
	stem = forbiddenPathChars.ReplaceAllString(stem, " ")
	stem = strings.TrimSpace(stem)

	newPath := filepath.Join(filepath.Dir(oldPath), stem+filepath.Ext(oldPath))
	if err := os.Rename(oldPath, newPath); err != nil {
		return "", err
	}
	return newPath, nil
}
