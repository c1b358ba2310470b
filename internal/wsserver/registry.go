package wsserver

import (
	"sync"

	"github.com/gorilla/websocket"
)

// connEntry tracks one live connection and the task_id currently streaming
// over it, so a disconnect can drop the right in-flight segmenter/merger
// state (lazy PartialResult GC).
type connEntry struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	taskID  string
}

func (e *connEntry) setTaskID(id string) {
	e.mu.Lock()
	e.taskID = id
	e.mu.Unlock()
}

func (e *connEntry) getTaskID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.taskID
}

// write serialises concurrent writers, since gorilla/websocket connections
// are not safe for concurrent writes: the per-connection read loop and the
// central result-dispatch goroutine can both want to write at once.
func (e *connEntry) write(messageType int, data []byte) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	return e.conn.WriteMessage(messageType, data)
}

// connTable is the server-wide registry of live connections keyed by
// socket_id, satisfying internal/asr.LiveSockets so the worker manager can
// drop tasks for sockets that have already disconnected.
type connTable struct {
	mu    sync.RWMutex
	byID  map[string]*connEntry
}

func newConnTable() *connTable {
	return &connTable{byID: make(map[string]*connEntry)}
}

func (t *connTable) register(socketID string, conn *websocket.Conn) *connEntry {
	entry := &connEntry{conn: conn}
	t.mu.Lock()
	t.byID[socketID] = entry
	t.mu.Unlock()
	return entry
}

func (t *connTable) unregister(socketID string) {
	t.mu.Lock()
	delete(t.byID, socketID)
	t.mu.Unlock()
}

func (t *connTable) get(socketID string) (*connEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.byID[socketID]
	return e, ok
}

// Live implements internal/asr.LiveSockets.
func (t *connTable) Live(socketID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.byID[socketID]
	return ok
}
