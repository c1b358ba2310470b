// Package wsserver implements the server-side WebSocket endpoint (C7):
// accepting client connections, decoding inbound AudioChunk frames, handing
// them to the segmenter and ASR worker manager, and routing merged Results
// back to the connection that originated the task.
package wsserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/asr"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/merger"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/metrics"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/segment"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/wire"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  16384,
	WriteBufferSize: 16384,
	Subprotocols:    []string{"binary"},
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// taskSubmitter is the narrow slice of asr.Manager the server needs,
// letting tests inject a fake without spawning a worker subprocess.
type taskSubmitter interface {
	Submit(task wire.Task) error
}

// resultSource is the narrow slice of asr.Manager the server's dispatch
// loop needs.
type resultSource interface {
	Results() <-chan wire.WorkerOutput
}

// Server accepts client WebSocket connections and wires them into the
// segmenter (C4), ASR worker manager (C5), and result merger (C6).
type Server struct {
	segments *segment.Manager
	submit   taskSubmitter
	source   resultSource
	merge    *merger.Merger
	conns    *connTable
	log      *slog.Logger
}

// New builds a Server. asrMgr.Results() is drained by Run.
func New(segments *segment.Manager, asrMgr *asr.Manager, merge *merger.Merger, log *slog.Logger) *Server {
	return newServer(segments, asrMgr, asrMgr, merge, log)
}

func newServer(segments *segment.Manager, submit taskSubmitter, source resultSource, merge *merger.Merger, log *slog.Logger) *Server {
	return &Server{
		segments: segments,
		submit:   submit,
		source:   source,
		merge:    merge,
		conns:    newConnTable(),
		log:      log,
	}
}

// Sockets exposes the connection registry as internal/asr.LiveSockets, for
// wiring into asr.NewManager.
func (s *Server) Sockets() asr.LiveSockets {
	return s.conns
}

// Run drains WorkerOutputs from the ASR manager, merges them, and writes
// the resulting Result frame to the originating connection (if it is still
// open) until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case out, ok := <-s.source.Results():
			if !ok {
				return
			}
			s.dispatch(out)
		}
	}
}

func (s *Server) dispatch(out wire.WorkerOutput) {
	entry, ok := s.conns.get(out.SocketID)
	if !ok {
		return
	}
	pr := s.merge.Merge(out, out.SocketID, out.Source)
	metrics.MergeQueueDepth.Set(float64(s.merge.InFlight()))
	if pr.TimeComplete > out.TimeSubmit && out.TimeSubmit > 0 {
		metrics.ASRLatency.Observe(pr.TimeComplete - out.TimeSubmit)
	}
	result := wire.Result{
		TaskID:       pr.TaskID,
		SocketID:     pr.SocketID,
		Source:       pr.Source,
		Duration:     pr.Duration,
		Tokens:       pr.Tokens,
		Timestamps:   pr.Timestamps,
		Text:         pr.Text,
		TimeStart:    pr.TimeStart,
		TimeSubmit:   pr.TimeSubmit,
		TimeComplete: pr.TimeComplete,
		IsFinal:      pr.IsFinal,
	}
	data, err := wire.Marshal(result)
	if err != nil {
		s.logf("encode result: %v", err)
		return
	}
	if err := entry.write(websocket.TextMessage, data); err != nil {
		s.logf("write result: %v", err)
	}
}

// ServeHTTP upgrades the connection, assigns it a socket_id, and runs its
// read loop until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logf("upgrade: %v", err)
		return
	}
	defer conn.Close()

	socketID := uuid.NewString()
	entry := s.conns.register(socketID, conn)
	metrics.SessionsTotal.Inc()
	metrics.SessionsActive.Inc()
	defer s.onDisconnect(socketID, entry)

	s.logf("connection opened: %s", socketID)
	s.readLoop(socketID, conn)
}

func (s *Server) readLoop(socketID string, conn *websocket.Conn) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.BinaryMessage && msgType != websocket.TextMessage {
			continue
		}
		if !s.handleFrame(socketID, data) {
			return
		}
	}
}

// handleFrame decodes and routes one inbound frame. It returns false when
// the frame is malformed, signalling the caller to close the connection
// with no response.
func (s *Server) handleFrame(socketID string, data []byte) bool {
	chunk, err := wire.DecodeAudioChunk(data)
	if err != nil {
		metrics.MalformedFrames.Inc()
		s.logf("malformed frame from %s: %v", socketID, err)
		return false
	}

	if entry, ok := s.conns.get(socketID); ok {
		entry.setTaskID(chunk.TaskID)
	}

	tasks, err := s.segments.Push(socketID, chunk, nowUnix())
	if err != nil {
		s.logf("segmenter push: %v", err)
		return false
	}
	for _, task := range tasks {
		metrics.SegmentsDispatched.Inc()
		metrics.SegmentDuration.Observe(float64(len(task.Samples)) / 16000)
		if err := s.submit.Submit(task); err != nil {
			s.logf("asr submit: %v", err)
		}
	}
	return true
}

func (s *Server) onDisconnect(socketID string, entry *connEntry) {
	s.conns.unregister(socketID)
	metrics.SessionsActive.Dec()
	if taskID := entry.getTaskID(); taskID != "" {
		s.segments.Drop(taskID)
		s.merge.Drop(taskID)
	}
	s.logf("connection closed: %s", socketID)
}

func (s *Server) logf(format string, args ...any) {
	if s.log == nil {
		return
	}
	s.log.Warn("wsserver: " + fmt.Sprintf(format, args...))
}

func nowUnix() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
