// Package event defines the synthesized input events and the sink that consumes them.
package event

import (
	"github.com/frudas24/qaagent/internal/contact"
	"github.com/frudas24/qaagent/internal/geom"
	"github.com/frudas24/qaagent/internal/keys"
)

// TouchType is the phase of a batched touch event.
type TouchType int

// Touch phases.
const (
	TouchBegin TouchType = iota + 1
	TouchUpdate
	TouchEnd
)

// String returns the phase name.
func (t TouchType) String() string {
	switch t {
	case TouchBegin:
		return "begin"
	case TouchUpdate:
		return "update"
	case TouchEnd:
		return "end"
	default:
		return "unknown"
	}
}

// MouseType is the kind of a mouse event.
type MouseType int

// Mouse event kinds.
const (
	MousePress MouseType = iota + 1
	MouseMove
	MouseRelease
)

// String returns the kind name.
func (t MouseType) String() string {
	switch t {
	case MousePress:
		return "press"
	case MouseMove:
		return "move"
	case MouseRelease:
		return "release"
	default:
		return "unknown"
	}
}

// KeyType is the kind of a key event.
type KeyType int

// Key event kinds.
const (
	KeyPress KeyType = iota + 1
	KeyRelease
)

// String returns the kind name.
func (t KeyType) String() string {
	if t == KeyRelease {
		return "release"
	}
	return "press"
}

// TouchEvent carries every live contact with its per-contact state.
type TouchEvent struct {
	Type      TouchType
	Points    []contact.Point
	Modifiers keys.Modifiers
	Timestamp uint64
}

// MouseEvent is a single-pointer event. Pos is window-local, Global is screen space.
type MouseEvent struct {
	Type      MouseType
	Pos       geom.Point
	Global    geom.Point
	Button    keys.Button
	Buttons   keys.Button
	Modifiers keys.Modifiers
	Timestamp uint64
}

// KeyEvent is a key press or release.
type KeyEvent struct {
	Type      KeyType
	Key       keys.Code
	Modifiers keys.Modifiers
	Text      string
	Timestamp uint64
}

// Sink receives synthesized events on the host main loop.
type Sink interface {
	EmitTouch(ev TouchEvent) error
	EmitMouse(ev MouseEvent) error
	EmitKey(ev KeyEvent) error
}
