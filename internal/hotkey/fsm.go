package hotkey

import (
	"fmt"
	"log/slog"
	"time"
)

type state int

const (
	stateIdle state = iota
	statePending
	stateRecording
)

// Session is a single recording task spawned by a shortcut's hold/toggle
// cycle. The concrete implementation (internal/recorder) owns the audio
// queue and sender coroutine; the state machine only ever Cancels or
// Finishes it.
type Session interface {
	// Cancel abandons the task immediately; no final chunk is sent.
	Cancel()
	// Finish flushes the buffered audio as the final segment.
	Finish()
}

// SessionStarter spawns a new Session for a shortcut key. Returning an
// error aborts the press without transitioning into recording.
type SessionStarter interface {
	Start(shortcutKey string) (Session, error)
}

type synthesizer interface {
	MarkSynthesized(key string)
}

// FSM drives one Shortcut's idle/pending/recording lifecycle. It is not
// safe for concurrent use from multiple goroutines; a
// Dispatcher serialises events per shortcut.
type FSM struct {
	shortcut Shortcut
	coord    *Coordinator
	starter  SessionStarter
	injector Injector
	marker   synthesizer
	log      *slog.Logger

	state     state
	session   Session
	pressedAt time.Time
}

// NewFSM builds an FSM for one shortcut. injector and marker may both be
// nil, in which case restore/suppress taps are skipped (used in tests and
// for shortcuts with restore=false, suppress=false).
func NewFSM(shortcut Shortcut, coord *Coordinator, starter SessionStarter, injector Injector, marker synthesizer, log *slog.Logger) *FSM {
	return &FSM{
		shortcut: shortcut,
		coord:    coord,
		starter:  starter,
		injector: injector,
		marker:   marker,
		log:      log,
	}
}

// HandleEvent processes one event known to belong to this shortcut's key.
func (f *FSM) HandleEvent(ev Event) {
	if !f.shortcut.Enabled {
		return
	}
	switch ev.Type {
	case KeyDown:
		f.onDown()
	case KeyUp:
		f.onUp()
	}
}

func (f *FSM) onDown() {
	if f.shortcut.HoldMode {
		if f.state != stateIdle {
			return
		}
		if !f.coord.TryAcquire(f.shortcut.Key) {
			return
		}
		f.pressedAt = time.Now()
		sess, err := f.starter.Start(f.shortcut.Key)
		if err != nil {
			f.coord.Release(f.shortcut.Key)
			f.logf("start session: %v", err)
			return
		}
		f.session = sess
		f.state = stateRecording
		return
	}

	// Toggle mode: a key-down always starts a "click"; whether it begins
	// or ends the recording is decided on the matching key-up. This fires
	// on the start click (state idle, no session yet) and the stop click
	// (state recording, session already running); a down arriving while a
	// click is already in progress is a stray repeat and ignored.
	if f.state == statePending {
		return
	}
	if f.session == nil && !f.coord.TryAcquire(f.shortcut.Key) {
		return
	}
	f.pressedAt = time.Now()
	f.state = statePending
}

func (f *FSM) onUp() {
	switch f.state {
	case stateRecording:
		f.finishHold()
	case statePending:
		f.finishToggleClick()
	case stateIdle:
		// stray release, ignore
	}
}

func (f *FSM) finishHold() {
	elapsed := time.Since(f.pressedAt).Seconds()
	cancelled := elapsed < f.shortcut.Threshold
	if cancelled {
		f.session.Cancel()
	} else {
		f.session.Finish()
	}
	f.session = nil
	f.coord.Release(f.shortcut.Key)
	f.state = stateIdle
	f.afterSession(cancelled)
}

func (f *FSM) finishToggleClick() {
	if f.session == nil {
		elapsed := time.Since(f.pressedAt).Seconds()
		if elapsed < f.shortcut.Threshold {
			f.coord.Release(f.shortcut.Key)
			f.state = stateIdle
			f.afterSession(true)
			return
		}
		sess, err := f.starter.Start(f.shortcut.Key)
		if err != nil {
			f.coord.Release(f.shortcut.Key)
			f.state = stateIdle
			f.logf("start session: %v", err)
			return
		}
		f.session = sess
		f.state = stateRecording
		return
	}

	f.session.Finish()
	f.session = nil
	f.coord.Release(f.shortcut.Key)
	f.state = stateIdle
	f.afterSession(false)
}

// afterSession applies the restore/suppress emulated-tap rules once a
// press has resolved into either a cancellation or a completed session.
func (f *FSM) afterSession(cancelled bool) {
	if f.injector == nil {
		return
	}
	switch {
	case cancelled && f.shortcut.Suppress:
		f.emulateTap()
	case !cancelled && f.shortcut.Restore && !f.shortcut.Suppress:
		f.emulateTap()
	}
}

func (f *FSM) emulateTap() {
	if f.marker != nil {
		f.marker.MarkSynthesized(f.shortcut.Key)
	}
	if err := f.injector.Tap(f.shortcut.Key); err != nil {
		f.logf("emulate tap: %v", err)
	}
}

func (f *FSM) logf(format string, args ...any) {
	if f.log == nil {
		return
	}
	f.log.Warn("hotkey: "+fmt.Sprintf(format, args...), "shortcut", f.shortcut.Key)
}
