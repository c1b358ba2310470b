package hotword

import (
	"bufio"
	"os"
	"strings"
	"sync/atomic"
)

// tableSet is the unit swapped atomically on reload so a replacement in
// flight never observes half-updated tables.
type tableSet struct {
	zh   *ZhTable
	en   *EnTable
	rule *RuleTable
}

// Engine holds the three hot-word tables and applies whichever are enabled.
// Reload swaps a fresh tableSet in with a single atomic store, an RCU-style
// update: readers never block and never see a partially updated table.
type Engine struct {
	enableZh, enableEn, enableRule bool
	current                        atomic.Pointer[tableSet]
}

func NewEngine(enableZh, enableEn, enableRule bool) *Engine {
	e := &Engine{enableZh: enableZh, enableEn: enableEn, enableRule: enableRule}
	e.current.Store(&tableSet{zh: NewZhTable(nil), en: NewEnTable(nil), rule: NewRuleTable(nil)})
	return e
}

// Replace runs the enabled tables over text, in zh -> en -> rule order.
func (e *Engine) Replace(text string) string {
	ts := e.current.Load()
	if e.enableZh {
		text = ts.zh.Replace(text)
	}
	if e.enableEn {
		text = ts.en.Replace(text)
	}
	if e.enableRule {
		text = ts.rule.Replace(text)
	}
	return text
}

// LoadFiles parses the zh/en/rule source files (any may be empty, meaning
// "no file configured") and swaps them in as the new active table set.
// Missing files are treated as empty tables, not errors, so a freshly
// installed client with no hot-word files configured still starts cleanly.
func (e *Engine) LoadFiles(zhPath, enPath, rulePath string) error {
	zhEntries, err := parseZhFile(zhPath)
	if err != nil {
		return err
	}
	enWords, err := parseLineFile(enPath)
	if err != nil {
		return err
	}
	rulePairs, err := parseRuleFile(rulePath)
	if err != nil {
		return err
	}
	e.current.Store(&tableSet{
		zh:   NewZhTable(zhEntries),
		en:   NewEnTable(enWords),
		rule: NewRuleTable(rulePairs),
	})
	return nil
}

// parseZhFile reads a hot-zh.txt: one entry per line, either a bare word
// (replaced with itself, i.e. just a correction target ASR commonly
// mangles, canonicalised to this exact spelling) or "key = value".
func parseZhFile(path string) (map[string]string, error) {
	lines, err := readNonEmptyLines(path)
	if err != nil {
		return nil, err
	}
	entries := make(map[string]string, len(lines))
	for _, line := range lines {
		if idx := strings.Index(line, " = "); idx >= 0 {
			key := strings.TrimSpace(line[:idx])
			val := strings.TrimSpace(line[idx+len(" = "):])
			if key != "" {
				entries[key] = val
			}
			continue
		}
		entries[line] = line
	}
	return entries, nil
}

func parseLineFile(path string) ([]string, error) {
	return readNonEmptyLines(path)
}

func parseRuleFile(path string) ([][2]string, error) {
	lines, err := readNonEmptyLines(path)
	if err != nil {
		return nil, err
	}
	var pairs [][2]string
	for _, line := range lines {
		idx := strings.Index(line, " = ")
		if idx < 0 {
			continue
		}
		lhs := strings.TrimSpace(line[:idx])
		rhs := strings.TrimSpace(line[idx+len(" = "):])
		if lhs == "" {
			continue
		}
		pairs = append(pairs, [2]string{lhs, rhs})
	}
	return pairs, nil
}

func readNonEmptyLines(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, scanner.Err()
}
