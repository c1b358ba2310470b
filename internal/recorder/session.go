package recorder

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/audio"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/wire"
)

// ChunkSender is the narrow slice of the client's WebSocket connection a
// Session needs: encode-and-send one AudioChunk.
type ChunkSender interface {
	Send(chunk wire.AudioChunk) error
}

// Session is one press-to-talk recording task: it satisfies
// internal/hotkey.Session (Cancel/Finish) and owns the frameQueue the
// Recorder's continuous capture loop feeds while this session is active.
type Session struct {
	taskID      string
	source      wire.Source
	sender      ChunkSender
	decimate    int
	captureRate int
	segDuration float64
	segOverlap  float64
	threshold   float64
	saveAudio   bool
	audioPath   string
	log         *slog.Logger

	queue     *frameQueue
	timeStart float64
	done      chan struct{}
	outRate   int
	saved     []float32
}

func newSession(taskID string, source wire.Source, sender ChunkSender, decimate, captureRate int, segDuration, segOverlap, threshold float64, audioPath string, log *slog.Logger) *Session {
	return &Session{
		taskID:      taskID,
		source:      source,
		sender:      sender,
		decimate:    decimate,
		captureRate: captureRate,
		segDuration: segDuration,
		segOverlap:  segOverlap,
		threshold:   threshold,
		saveAudio:   audioPath != "",
		audioPath:   audioPath,
		log:         log,
		queue:       newFrameQueue(),
		timeStart:   nowUnix(),
		done:        make(chan struct{}),
	}
}

// enqueue is called by the Recorder's capture-routing loop for every frame
// arriving while this session is active.
func (s *Session) enqueue(f audio.Frame) {
	s.queue.push(f)
}

// run is the sender coroutine: it caches frames until the configured
// threshold duration has buffered, then streams one chunk per frame
// after that, downsampling each frame to 16kHz mono before sending. It
// returns once the queue is closed and drained (Finish) or dropped
// (Cancel).
func (s *Session) run() {
	defer close(s.done)

	var cache []float32
	gated := true
	outRate := s.captureRate / s.decimate
	s.outRate = outRate

	for {
		frame, ok := s.queue.pop()
		if !ok {
			return
		}
		mono := audio.DecimateToMono(frame, s.decimate)
		if s.saveAudio {
			s.saved = append(s.saved, mono...)
		}

		if gated {
			cache = append(cache, mono...)
			if float64(len(cache))/float64(outRate) < s.threshold {
				continue
			}
			gated = false
			if err := s.send(cache, false); err != nil {
				s.logf("send: %v", err)
			}
			cache = nil
			continue
		}

		if err := s.send(mono, false); err != nil {
			s.logf("send: %v", err)
		}
	}
}

func (s *Session) send(samples []float32, isFinal bool) error {
	chunk := wire.EncodeAudioChunk(s.taskID, s.source, s.segDuration, s.segOverlap, isFinal, s.timeStart, nowUnix(), samples)
	return s.sender.Send(chunk)
}

// Cancel implements internal/hotkey.Session: the queue's backlog is
// discarded and no final chunk is ever sent.
func (s *Session) Cancel() {
	s.queue.drop()
	<-s.done
}

// Finish implements internal/hotkey.Session: the queue is closed so run
// drains whatever is already buffered, then an empty is_final chunk is sent
// so exactly one chunk per task_id has is_final=true.
func (s *Session) Finish() {
	s.queue.close()
	<-s.done
	if err := s.send(nil, true); err != nil {
		s.logf("send final: %v", err)
	}
	if s.saveAudio {
		if err := audio.WriteWAVFile(s.audioPath, s.saved, s.outRate); err != nil {
			s.logf("save audio: %v", err)
		}
	}
}

// AudioPath returns the path the session's audio was (or will be) written
// to, empty if save_audio is disabled. internal/sink reads the same path
// through Recorder.AudioPath, to rename the file using the transcript text.
func (s *Session) AudioPath() string {
	return s.audioPath
}

func (s *Session) logf(format string, args ...any) {
	if s.log == nil {
		return
	}
	s.log.Warn("recorder: "+fmt.Sprintf(format, args...), "task_id", s.taskID)
}

func nowUnix() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
