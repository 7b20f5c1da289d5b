// Package gesture turns high-level gesture requests into sequencer runs and
// translates their signals into touch, mouse and key events on the main loop.
package gesture

import (
	"fmt"
	"strings"
)

// InputMode selects how primitive press/move/release signals are delivered.
type InputMode int

const (
	// PointerMode delivers single-pointer mouse events.
	PointerMode InputMode = iota
	// TouchMode delivers batched multi-touch events.
	TouchMode
)

// String returns the mode name.
func (m InputMode) String() string {
	if m == TouchMode {
		return "touch"
	}
	return "pointer"
}

// ParseInputMode maps a configured mode name to an InputMode.
// "auto" (or empty) picks touch for embedded targets and pointer otherwise.
func ParseInputMode(name string, embedded bool) (InputMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		if embedded {
			return TouchMode, nil
		}
		return PointerMode, nil
	case "pointer", "mouse":
		return PointerMode, nil
	case "touch":
		return TouchMode, nil
	default:
		return PointerMode, fmt.Errorf("unknown input mode %q", name)
	}
}
