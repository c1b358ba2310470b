package hotkey

import "sync"

// Coordinator enforces the single-active-session invariant:
// recording tasks for different shortcuts never run concurrently. Every
// per-shortcut FSM shares one Coordinator.
type Coordinator struct {
	mu     sync.Mutex
	active string // key of the shortcut currently recording, "" if none
}

func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// TryAcquire claims the single recording slot for key. It returns false if
// another shortcut already holds it, in which case the caller must ignore
// the key-down entirely ("ignored until the first completes").
func (c *Coordinator) TryAcquire(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != "" {
		return false
	}
	c.active = key
	return true
}

// Release frees the slot. A no-op if key does not currently hold it (e.g.
// double-release after an already-cancelled session).
func (c *Coordinator) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == key {
		c.active = ""
	}
}
