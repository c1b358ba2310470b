package hotkey

import (
	"context"
	"log/slog"
)

// Dispatcher owns one FSM per configured shortcut and routes events from a
// HotkeyListener to the FSM matching the event's key. Events for unknown
// keys are ignored.
type Dispatcher struct {
	fsms map[string]*FSM
	log  *slog.Logger
}

// NewDispatcher builds a Dispatcher for shortcuts, sharing one Coordinator
// across them so the single-active-session invariant holds process-wide.
func NewDispatcher(shortcuts []Shortcut, starter SessionStarter, injector Injector, marker synthesizer, log *slog.Logger) *Dispatcher {
	coord := NewCoordinator()
	fsms := make(map[string]*FSM, len(shortcuts))
	for _, s := range shortcuts {
		fsms[s.Key] = NewFSM(s, coord, starter, injector, marker, log)
	}
	return &Dispatcher{fsms: fsms, log: log}
}

// Run drains listener.Events() until ctx is cancelled or the listener
// closes its channel.
func (d *Dispatcher) Run(ctx context.Context, listener HotkeyListener) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-listener.Events():
			if !ok {
				return
			}
			if fsm, found := d.fsms[ev.Key]; found {
				fsm.HandleEvent(ev)
			}
		}
	}
}
