package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const markdownHeader = "<!-- transcript log -->\n\n"

// writeMarkdown appends one entry for text to the per-day Markdown file,
// and additionally to a per-keyword Markdown file for every configured
// keyword that text starts with. The empty keyword always "matches" so
// the per-day file is always written.
func (s *Sink) writeMarkdown(text string, timeStart float64, audioPath string) error {
	t := time.Unix(int64(timeStart), 0)
	dayDir := filepath.Join(s.opts.RootDir, t.Format("2006"), t.Format("01"))
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		return err
	}

	matched := append([]string{""}, s.opts.Keywords...)
	var firstErr error
	seen := make(map[string]bool)
	for _, kwd := range matched {
		if !strings.HasPrefix(text, kwd) {
			continue
		}
		name := t.Format("02") + ".md"
		if kwd != "" {
			name = kwd + "-" + name
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		mdPath := filepath.Join(dayDir, name)
		body := strings.TrimLeft(text[len(kwd):], s.opts.TrashPunc)
		if err := appendMarkdownEntry(mdPath, t.Format("15:04:05"), body, audioPath, dayDir); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func appendMarkdownEntry(mdPath, hms, text, audioPath, mdDir string) error {
	if _, err := os.Stat(mdPath); os.IsNotExist(err) {
		if err := os.WriteFile(mdPath, []byte(markdownHeader), 0o644); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(mdPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	link := ""
	if audioPath != "" {
		rel, err := filepath.Rel(mdDir, audioPath)
		if err == nil {
			link = fmt.Sprintf("[%s](%s) ", hms, strings.ReplaceAll(filepath.ToSlash(rel), " ", "%20"))
		}
	}
	if link == "" {
		link = fmt.Sprintf("[%s] ", hms)
	}

	_, err = fmt.Fprintf(f, "%s%s\n\n", link, text)
	return err
}
