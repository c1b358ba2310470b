// Package hotkey implements the per-shortcut press/release/hold lifecycle
// (C9): a small state machine per configured Shortcut, driven by events
// from a HotkeyListener (an OS input hook in production, a UDP command
// source in tests or headless setups).
package hotkey

import (
	"errors"
	"strings"
)

// Kind distinguishes a keyboard shortcut from a mouse-button one; both are
// driven through the same event stream and state machine.
type Kind string

const (
	KindKeyboard Kind = "keyboard"
	KindMouse    Kind = "mouse"
)

// restorableKeys lists the stateful keys a Shortcut with Restore=true is
// allowed to bind to.
var restorableKeys = map[string]bool{
	"capslock":   true,
	"numlock":    true,
	"scrolllock": true,
	"shift":      true,
	"ctrl":       true,
	"alt":        true,
	"win":        true,
}

// Shortcut is one configured hotkey binding.
type Shortcut struct {
	Key       string  `mapstructure:"key"`
	Type      Kind    `mapstructure:"type"`
	Suppress  bool    `mapstructure:"suppress"`
	Restore   bool    `mapstructure:"restore"`
	HoldMode  bool    `mapstructure:"hold_mode"`
	Threshold float64 `mapstructure:"threshold"` // seconds
	Enabled   bool    `mapstructure:"enabled"`
}

// Validate enforces the invariant that a Restore=true shortcut must be
// bound to a stateful key. Called once at config load time, not on every
// event, since the set of shortcuts is fixed for the process lifetime.
func (s Shortcut) Validate() error {
	if s.Type != KindKeyboard && s.Type != KindMouse {
		return errors.New("hotkey: shortcut type must be keyboard or mouse")
	}
	if s.Key == "" {
		return errors.New("hotkey: shortcut key must not be empty")
	}
	if s.Restore && !restorableKeys[strings.ToLower(s.Key)] {
		return errors.New("hotkey: restore=true requires a stateful key (capslock, numlock, scrolllock, or a modifier)")
	}
	if s.Threshold < 0 {
		return errors.New("hotkey: threshold must be non-negative")
	}
	return nil
}
