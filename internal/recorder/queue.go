package recorder

import (
	"sync"

	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/audio"
)

// frameQueue is the unbounded async queue a recording task's frames are
// pushed into: push never blocks (it only appends under a short-held
// mutex), so the audio capture callback feeding it can return immediately
// no matter how slow the sender coroutine draining it runs.
type frameQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []audio.Frame
	closed bool
}

func newFrameQueue() *frameQueue {
	q := &frameQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *frameQueue) push(f audio.Frame) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.buf = append(q.buf, f)
	q.cond.Signal()
}

// pop blocks until a frame is available or the queue is closed and drained,
// in which case ok is false.
func (q *frameQueue) pop() (audio.Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.buf) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.buf) == 0 {
		return audio.Frame{}, false
	}
	f := q.buf[0]
	q.buf = q.buf[1:]
	return f, true
}

// close marks the queue closed; pending frames already pushed are still
// delivered to pop before it starts returning ok=false. Used by Finish, so
// run still sends the frames pushed before the hotkey was released.
func (q *frameQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// drop closes the queue and discards any buffered frames immediately,
// used by Cancel so an abandoned task's backlog is never sent.
func (q *frameQueue) drop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.buf = nil
	q.closed = true
	q.cond.Broadcast()
}
