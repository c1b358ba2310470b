package segment

import (
	"sync"

	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/wire"
)

// Manager owns one Buffer per in-flight task_id, guarding the map (and thus
// against concurrent Push calls racing on the same buffer) with a mutex.
// A client only ever streams one task_id at a time per connection, but the
// server accepts many connections concurrently, so buffers are keyed
// globally by task_id (unique per recording session) rather than
// per-socket.
type Manager struct {
	mu      sync.Mutex
	buffers map[string]*Buffer
}

func NewManager() *Manager {
	return &Manager{buffers: make(map[string]*Buffer)}
}

// Push routes an inbound AudioChunk to its task's Buffer, creating the
// buffer on the first chunk. It returns the Tasks ready for the ASR worker
// and removes the buffer once a final chunk has been processed.
func (m *Manager) Push(socketID string, chunk wire.AudioChunk, timeSubmit float64) ([]wire.Task, error) {
	m.mu.Lock()
	buf, ok := m.buffers[chunk.TaskID]
	if !ok {
		buf = NewBuffer(socketID, chunk)
		m.buffers[chunk.TaskID] = buf
	}
	m.mu.Unlock()

	tasks, err := buf.Push(chunk, timeSubmit)
	if err != nil {
		return nil, err
	}
	if chunk.IsFinal {
		m.mu.Lock()
		delete(m.buffers, chunk.TaskID)
		m.mu.Unlock()
	}
	return tasks, nil
}

// Drop discards a task's buffer without emitting a final Task, for sockets
// that disconnect mid-recording.
func (m *Manager) Drop(taskID string) {
	m.mu.Lock()
	delete(m.buffers, taskID)
	m.mu.Unlock()
}

// Active reports whether taskID currently has a buffer, used by C7 to decide
// whether a late chunk for an already-finalised task should be ignored.
func (m *Manager) Active(taskID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.buffers[taskID]
	return ok
}
