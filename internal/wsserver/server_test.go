package wsserver

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/merger"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/segment"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/textnorm"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/wire"
)

type fakeSubmitter struct {
	submitted []wire.Task
}

func (f *fakeSubmitter) Submit(task wire.Task) error {
	f.submitted = append(f.submitted, task)
	return nil
}

type fakeSource struct {
	ch chan wire.WorkerOutput
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan wire.WorkerOutput, 8)}
}

func (f *fakeSource) Results() <-chan wire.WorkerOutput {
	return f.ch
}

func newTestMerger(t *testing.T) *merger.Merger {
	t.Helper()
	norm, err := textnorm.NewNormaliser("")
	if err != nil {
		t.Fatalf("NewNormaliser() error = %v", err)
	}
	return merger.New(norm, nil, textnorm.Options{FormatNum: true, FormatSpell: true})
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServeHTTPRejectsMalformedFrame(t *testing.T) {
	sub := &fakeSubmitter{}
	src := newFakeSource()
	srv := newServer(segment.NewManager(), sub, src, newTestMerger(t), nil)

	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn := dialWS(t, ts)
	if err := conn.WriteMessage(websocket.BinaryMessage, []byte("not json")); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected connection to be closed after malformed frame")
	}
}

func TestServeHTTPSubmitsTaskOnFinalChunk(t *testing.T) {
	sub := &fakeSubmitter{}
	src := newFakeSource()
	srv := newServer(segment.NewManager(), sub, src, newTestMerger(t), nil)

	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn := dialWS(t, ts)
	samples := make([]float32, 16000)
	chunk := wire.EncodeAudioChunk("t1", wire.SourceMic, 15, 2, true, 1000.0, 0, samples)
	data, err := wire.Marshal(chunk)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(sub.submitted) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if len(sub.submitted) != 1 {
		t.Fatalf("submitted = %d tasks, want 1", len(sub.submitted))
	}
	if sub.submitted[0].TaskID != "t1" {
		t.Fatalf("TaskID = %q, want t1", sub.submitted[0].TaskID)
	}
	if !sub.submitted[0].IsFinal {
		t.Fatalf("IsFinal = false, want true")
	}
}

func TestDispatchWritesResultToOriginatingConnection(t *testing.T) {
	sub := &fakeSubmitter{}
	src := newFakeSource()
	srv := newServer(segment.NewManager(), sub, src, newTestMerger(t), nil)

	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn := dialWS(t, ts)
	// send one chunk first so the connection is carrying task t1
	samples := make([]float32, 1000)
	chunk := wire.EncodeAudioChunk("t1", wire.SourceMic, 15, 2, false, 1000.0, 0, samples)
	data, err := wire.Marshal(chunk)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}

	// discover the socket_id the server assigned by polling the registry
	deadline := time.Now().Add(2 * time.Second)
	var socketID string
	for time.Now().Before(deadline) {
		srv.conns.mu.RLock()
		for id := range srv.conns.byID {
			socketID = id
		}
		n := len(srv.conns.byID)
		srv.conns.mu.RUnlock()
		if n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if socketID == "" {
		t.Fatalf("server never registered a connection")
	}

	srv.dispatch(wire.WorkerOutput{
		TaskID:     "t1",
		SocketID:   socketID,
		IsFinal:    true,
		Tokens:     []string{"hi"},
		Timestamps: []float64{0.1},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	result, err := wire.DecodeResult(msg)
	if err != nil {
		t.Fatalf("DecodeResult() error = %v", err)
	}
	if result.TaskID != "t1" {
		t.Fatalf("TaskID = %q, want t1", result.TaskID)
	}
	if !result.IsFinal {
		t.Fatalf("IsFinal = false, want true")
	}
}
