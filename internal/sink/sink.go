// Package sink implements the client's result sink (C10): on every
// is_final=true Result it runs hot-word substitution, the text normaliser,
// and trailing-punctuation trimming, then hands the cleaned text to an
// injector and, if configured, persists the session's audio and a
// Markdown transcript entry.
package sink

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/hotword"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/textnorm"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/wire"
)

// Injector types text into whatever application currently has keyboard
// focus. Concrete OS key-injection is out of scope (this repo's "system
// clipboard and key-injection primitives (contract only)"); this repo ships
// no implementation.
type Injector interface {
	TypeText(text string) error
	SendPaste() error
}

// Clipboard is the narrow clipboard contract the paste-mode path needs.
type Clipboard interface {
	SetText(text string) error
	GetText() (string, error)
}

// AudioPersister looks up where a session's recording file was written;
// Process then renames that file with RenameAudio. Implemented by
// internal/recorder in cmd/client's wiring (the Session already knows its
// own audio path; this interface lets sink stay audio-format-agnostic).
type AudioPersister interface {
	// AudioPath returns the path the session's audio was written to, or
	// "" if save_audio is disabled for this session.
	AudioPath(taskID string) string
}

// Options mirrors the subset of ClientConfig the sink pipeline needs.
type Options struct {
	Paste        bool
	RestoreClip  bool
	TrashPunc    string
	SaveAudio    bool
	AudioNameLen int
	// RootDir is the directory persisted state is rooted at (the
	// <yyyy>/<mm>/ tree is created beneath it).
	RootDir string
	// Keywords triggers an additional per-keyword Markdown file when a
	// transcript begins with one of these, from keywords.txt.
	Keywords []string
}

// Sink wires together the hot-word engine, text normaliser, and the
// external injector/clipboard/persistence collaborators into the C10
// pipeline below.
type Sink struct {
	hotwords    *hotword.Engine
	norm        *textnorm.Normaliser
	normOpts    textnorm.Options
	injector    Injector
	clipboard   Clipboard
	persister   AudioPersister
	broadcaster *UDPBroadcaster
	opts        Options
	log         *slog.Logger
}

func New(hotwords *hotword.Engine, norm *textnorm.Normaliser, normOpts textnorm.Options, injector Injector, clipboard Clipboard, persister AudioPersister, broadcaster *UDPBroadcaster, opts Options, log *slog.Logger) *Sink {
	return &Sink{
		hotwords:    hotwords,
		norm:        norm,
		normOpts:    normOpts,
		injector:    injector,
		clipboard:   clipboard,
		persister:   persister,
		broadcaster: broadcaster,
		opts:        opts,
		log:         log,
	}
}

// Process runs the full C10 pipeline for one server Result. Non-final
// results are ignored ("the client only acts on the
// is_final=true message" for mic sessions).
func (s *Sink) Process(result wire.Result) error {
	if !result.IsFinal {
		return nil
	}

	text := s.clean(result.Text)

	if err := s.inject(text); err != nil {
		s.logf("inject: %v", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.Send(text)
	}

	if s.opts.SaveAudio && s.persister != nil {
		audioPath, err := RenameAudio(s.persister.AudioPath(result.TaskID), text, result.TimeStart, s.opts.AudioNameLen)
		if err != nil {
			s.logf("rename audio: %v", err)
		}
		if err := s.writeMarkdown(text, result.TimeStart, audioPath); err != nil {
			s.logf("write markdown: %v", err)
		}
	}

	return nil
}

// clean applies hot-word substitution, the text normaliser, and trailing
// punctuation trimming, applied in that order.
func (s *Sink) clean(text string) string {
	if s.hotwords != nil {
		text = s.hotwords.Replace(text)
	}
	if s.norm != nil {
		text = s.norm.Normalise(text, s.normOpts)
	}
	return strings.TrimRight(text, s.opts.TrashPunc)
}

func (s *Sink) inject(text string) error {
	if s.injector == nil {
		return nil
	}
	if !s.opts.Paste {
		return s.injector.TypeText(text)
	}
	if s.clipboard == nil {
		return s.injector.TypeText(text)
	}
	var prior string
	var hadPrior bool
	if s.opts.RestoreClip {
		if p, err := s.clipboard.GetText(); err == nil {
			prior, hadPrior = p, true
		}
	}
	if err := s.clipboard.SetText(text); err != nil {
		return err
	}
	if err := s.injector.SendPaste(); err != nil {
		return err
	}
	if hadPrior {
		restorePasteClipboard(s.clipboard, prior)
	}
	return nil
}

func (s *Sink) logf(format string, args ...any) {
	if s.log == nil {
		return
	}
	s.log.Warn("sink: " + fmt.Sprintf(format, args...))
}
