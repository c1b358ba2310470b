package sink

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/hotword"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/textnorm"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/wire"
)

type fakeInjector struct {
	mu     sync.Mutex
	typed  []string
	pasted int
}

func (f *fakeInjector) TypeText(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed = append(f.typed, text)
	return nil
}

func (f *fakeInjector) SendPaste() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pasted++
	return nil
}

func (f *fakeInjector) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.typed) == 0 {
		return ""
	}
	return f.typed[len(f.typed)-1]
}

type fakeClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *fakeClipboard) SetText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

func (c *fakeClipboard) GetText() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text, nil
}

func (c *fakeClipboard) get() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

type fakePersister struct {
	path string
}

func (p *fakePersister) AudioPath(taskID string) string { return p.path }

func TestProcessIgnoresNonFinalResult(t *testing.T) {
	injector := &fakeInjector{}
	s := New(nil, nil, textnorm.Options{}, injector, nil, nil, nil, Options{}, nil)
	if err := s.Process(wire.Result{Text: "hello", IsFinal: false}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(injector.typed) != 0 {
		t.Error("expected non-final result not to be injected")
	}
}

func TestProcessTrimsTrailingPunctuation(t *testing.T) {
	injector := &fakeInjector{}
	s := New(nil, nil, textnorm.Options{}, injector, nil, nil, nil, Options{TrashPunc: "，。,."}, nil)
	if err := s.Process(wire.Result{Text: "你好世界。", IsFinal: true}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := injector.last(); got != "你好世界" {
		t.Errorf("expected trailing punctuation trimmed, got %q", got)
	}
}

func TestProcessAppliesHotwordReplacement(t *testing.T) {
	dir := t.TempDir()
	zhPath := filepath.Join(dir, "hot-zh.txt")
	if err := os.WriteFile(zhPath, []byte("CapsWriter"), 0o644); err != nil {
		t.Fatal(err)
	}
	engine := hotword.NewEngine(true, true, true)
	if err := engine.LoadFiles(zhPath, "", ""); err != nil {
		t.Fatalf("LoadFiles: %v", err)
	}

	injector := &fakeInjector{}
	s := New(engine, nil, textnorm.Options{}, injector, nil, nil, nil, Options{}, nil)
	if err := s.Process(wire.Result{Text: "CapsWriter", IsFinal: true}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := injector.last(); got != "CapsWriter" {
		t.Errorf("expected hotword pass-through to leave canonical spelling, got %q", got)
	}
}

func TestProcessAppliesNormaliser(t *testing.T) {
	norm, err := textnorm.NewNormaliser("")
	if err != nil {
		t.Fatalf("NewNormaliser: %v", err)
	}
	injector := &fakeInjector{}
	s := New(nil, norm, textnorm.Options{FormatNum: true, FormatSpell: true}, injector, nil, nil, nil, Options{}, nil)
	if err := s.Process(wire.Result{Text: "七个苹果", IsFinal: true}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := injector.last(); got != "7个苹果" {
		t.Errorf("expected chinese number normalised, got %q", got)
	}
}

func TestInjectPasteModeSetsClipboardAndRestores(t *testing.T) {
	injector := &fakeInjector{}
	clipboard := &fakeClipboard{text: "prior clipboard contents"}
	s := New(nil, nil, textnorm.Options{}, injector, clipboard, nil, nil, Options{Paste: true, RestoreClip: true}, nil)

	if err := s.Process(wire.Result{Text: "hello", IsFinal: true}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if injector.pasted != 1 {
		t.Errorf("expected one paste keystroke, got %d", injector.pasted)
	}
	if got := clipboard.get(); got != "hello" {
		t.Errorf("expected clipboard set to transcript before paste, got %q", got)
	}

	time.Sleep(restoreClipboardDelay + 50*time.Millisecond)
	if got := clipboard.get(); got != "prior clipboard contents" {
		t.Errorf("expected clipboard restored after delay, got %q", got)
	}
}

func TestRenameAudioSanitizesForbiddenChars(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "session.wav")
	if err := os.WriteFile(oldPath, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	newPath, err := RenameAudio(oldPath, `bad/name:here`, 1700000000, 20)
	if err != nil {
		t.Fatalf("RenameAudio: %v", err)
	}
	if strings.ContainsAny(filepath.Base(newPath), `/:"*?<>|`) {
		t.Errorf("expected forbidden path characters stripped, got %q", newPath)
	}
	if _, err := os.Stat(newPath); err != nil {
		t.Errorf("expected renamed file to exist: %v", err)
	}
}

func TestRenameAudioNoopWhenPathEmpty(t *testing.T) {
	newPath, err := RenameAudio("", "text", 0, 20)
	if err != nil || newPath != "" {
		t.Errorf("expected no-op for empty oldPath, got %q, %v", newPath, err)
	}
}

func TestWriteMarkdownAlwaysWritesDayFile(t *testing.T) {
	dir := t.TempDir()
	s := New(nil, nil, textnorm.Options{}, nil, nil, nil, nil, Options{RootDir: dir, TrashPunc: "，。,."}, nil)

	timeStart := float64(time.Date(2024, 3, 15, 10, 30, 0, 0, time.Local).Unix())
	if err := s.writeMarkdown("hello world", timeStart, ""); err != nil {
		t.Fatalf("writeMarkdown: %v", err)
	}

	dayFile := filepath.Join(dir, "2024", "03", "15.md")
	contents, err := os.ReadFile(dayFile)
	if err != nil {
		t.Fatalf("expected day file written: %v", err)
	}
	if !strings.Contains(string(contents), "hello world") {
		t.Errorf("expected day file to contain the transcript, got:\n%s", contents)
	}
}

func TestWriteMarkdownRoutesKeywordPrefixedText(t *testing.T) {
	dir := t.TempDir()
	s := New(nil, nil, textnorm.Options{}, nil, nil, nil, nil, Options{RootDir: dir, TrashPunc: "，。,.", Keywords: []string{"重要"}}, nil)

	timeStart := float64(time.Date(2024, 3, 15, 10, 30, 0, 0, time.Local).Unix())
	if err := s.writeMarkdown("重要：明天开会", timeStart, ""); err != nil {
		t.Fatalf("writeMarkdown: %v", err)
	}

	kwdFile := filepath.Join(dir, "2024", "03", "重要-15.md")
	if _, err := os.Stat(kwdFile); err != nil {
		t.Errorf("expected keyword-routed file to exist: %v", err)
	}
	dayFile := filepath.Join(dir, "2024", "03", "15.md")
	if _, err := os.Stat(dayFile); err != nil {
		t.Errorf("expected the plain day file to also exist: %v", err)
	}
}
