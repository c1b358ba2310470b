package segment

import (
	"testing"

	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/wire"
)

func makeChunk(taskID string, isFinal bool, seconds float64, segDuration, segOverlap float64) wire.AudioChunk {
	n := int(seconds * sampleRate)
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = 0.01
	}
	return wire.EncodeAudioChunk(taskID, wire.SourceMic, segDuration, segOverlap, isFinal, 1000.0, 0, samples)
}

func TestBufferEmitsNothingBelowThreshold(t *testing.T) {
	buf := NewBuffer("sock1", makeChunk("t1", false, 1, 15, 2))
	tasks, err := buf.Push(makeChunk("t1", false, 1, 15, 2), 1001.0)
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("len(tasks) = %d, want 0 below threshold", len(tasks))
	}
}

func TestBufferEmitsTaskOnceThresholdReached(t *testing.T) {
	segDuration, segOverlap := 15.0, 2.0
	buf := NewBuffer("sock1", makeChunk("t1", false, 0, segDuration, segOverlap))
	// threshold = seg_duration + 2*seg_overlap = 19s
	tasks, err := buf.Push(makeChunk("t1", false, 20, segDuration, segOverlap), 1001.0)
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("len(tasks) = %d, want 1", len(tasks))
	}
	task := tasks[0]
	wantLen := int((segDuration + segOverlap) * sampleRate)
	if len(task.Samples) != wantLen {
		t.Fatalf("len(task.Samples) = %d, want %d", len(task.Samples), wantLen)
	}
	if task.Offset != 0 {
		t.Fatalf("task.Offset = %v, want 0", task.Offset)
	}
	if task.IsFinal {
		t.Fatalf("task.IsFinal = true, want false")
	}
	// remaining buffered audio = 20 - seg_duration seconds
	wantRemaining := int((20 - segDuration) * sampleRate)
	if len(buf.samples) != wantRemaining {
		t.Fatalf("len(buf.samples) = %d, want %d", len(buf.samples), wantRemaining)
	}
}

func TestBufferFinalFlushesRemainderRegardlessOfLength(t *testing.T) {
	buf := NewBuffer("sock1", makeChunk("t1", false, 0, 15, 2))
	tasks, err := buf.Push(makeChunk("t1", true, 3, 15, 2), 1001.0)
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("len(tasks) = %d, want 1", len(tasks))
	}
	if !tasks[0].IsFinal {
		t.Fatalf("IsFinal = false, want true")
	}
	wantLen := int(3 * sampleRate)
	if len(tasks[0].Samples) != wantLen {
		t.Fatalf("len(Samples) = %d, want %d", len(tasks[0].Samples), wantLen)
	}
	if len(buf.samples) != 0 {
		t.Fatalf("buffer not reset after final chunk")
	}
}

func TestManagerRoutesByTaskID(t *testing.T) {
	m := NewManager()
	if _, err := m.Push("sock1", makeChunk("t1", false, 0, 15, 2), 1000); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if !m.Active("t1") {
		t.Fatalf("Active(t1) = false, want true")
	}
	tasks, err := m.Push("sock1", makeChunk("t1", true, 1, 15, 2), 1001)
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if len(tasks) != 1 || !tasks[0].IsFinal {
		t.Fatalf("final push did not yield final task: %+v", tasks)
	}
	if m.Active("t1") {
		t.Fatalf("Active(t1) = true after final chunk, want false")
	}
}

func TestManagerDrop(t *testing.T) {
	m := NewManager()
	if _, err := m.Push("sock1", makeChunk("t1", false, 0, 15, 2), 1000); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	m.Drop("t1")
	if m.Active("t1") {
		t.Fatalf("Active(t1) = true after Drop, want false")
	}
}
