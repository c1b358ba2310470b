// Package recorder implements the client-side recording session (C8's
// sender half): one Session per press-to-talk cycle, fed by a continuously
// running audio.MicSource and satisfying internal/hotkey.SessionStarter /
// internal/hotkey.Session so the hotkey state machine can drive it without
// knowing about audio or the wire protocol.
package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/audio"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/hotkey"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/wire"
)

// DecimateFactor is the capture-to-wire downsample ratio (48kHz -> 16kHz).
const DecimateFactor = 3

// CaptureSampleRate is the fixed microphone capture rate assumed throughout.
const CaptureSampleRate = 48000

// Recorder owns the continuously running MicSource and routes its frames to
// whichever Session is currently active, discarding them when none is: when
// no recording is active, samples are simply discarded.
type Recorder struct {
	mic         audio.MicSource
	sender      ChunkSender
	segDuration float64
	segOverlap  float64
	threshold   float64
	saveDir     string // empty disables save_audio
	log         *slog.Logger

	mu         sync.Mutex
	active     *Session
	audioPaths map[string]string
}

// New builds a Recorder. saveDir, if non-empty, enables per-session WAV
// persistence under saveDir (the "<yyyy>/<mm>/assets/" layout is
// applied by the caller constructing saveDir per session day).
func New(mic audio.MicSource, sender ChunkSender, segDuration, segOverlap, threshold float64, saveDir string, log *slog.Logger) *Recorder {
	return &Recorder{
		mic:         mic,
		sender:      sender,
		segDuration: segDuration,
		segOverlap:  segOverlap,
		threshold:   threshold,
		saveDir:     saveDir,
		log:         log,
		audioPaths:  make(map[string]string),
	}
}

// Run drains the mic continuously until ctx is cancelled, forwarding frames
// to the active session if any.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-r.mic.Frames():
			if !ok {
				return
			}
			r.mu.Lock()
			active := r.active
			r.mu.Unlock()
			if active != nil {
				active.enqueue(frame)
			}
		}
	}
}

// Start implements internal/hotkey.SessionStarter.
func (r *Recorder) Start(shortcutKey string) (hotkey.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return nil, fmt.Errorf("recorder: a session is already active")
	}

	taskID := uuid.NewString()
	audioPath := ""
	if r.saveDir != "" {
		audioPath = filepath.Join(r.saveDir, fmt.Sprintf("%s-%s.wav", time.Now().Format("20060102-150405"), taskID[:8]))
	}

	sess := newSession(taskID, wire.SourceMic, r.sender, DecimateFactor, CaptureSampleRate, r.segDuration, r.segOverlap, r.threshold, audioPath, r.log)
	r.active = sess
	r.audioPaths[taskID] = audioPath
	go func() {
		sess.run()
		r.mu.Lock()
		if r.active == sess {
			r.active = nil
		}
		r.mu.Unlock()
	}()
	return sess, nil
}

// AudioPath implements internal/sink.AudioPersister: the path a task's
// session wrote its WAV file to (empty if save_audio was disabled for that
// session), looked up after the server's is_final Result arrives so the
// sink can rename the file using the transcript text.
func (r *Recorder) AudioPath(taskID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.audioPaths[taskID]
}
