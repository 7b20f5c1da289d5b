package action

import (
	"time"

	"github.com/frudas24/qaagent/internal/geom"
)

// StepKind identifies a chained sub-step. Values match the wire names.
type StepKind string

const (
	// StepPause idles for Duration.
	StepPause StepKind = "pause"
	// StepKeyDown presses Value.
	StepKeyDown StepKind = "keyDown"
	// StepKeyUp releases Value.
	StepKeyUp StepKind = "keyUp"
	// StepPointerMove moves the pointer to Point relative to Origin.
	StepPointerMove StepKind = "pointerMove"
	// StepPointerDown presses Button at the current pointer position.
	StepPointerDown StepKind = "pointerDown"
	// StepPointerUp releases Button at the current pointer position.
	StepPointerUp StepKind = "pointerUp"
)

// Origin says what a pointerMove coordinate is relative to.
type Origin string

const (
	// OriginViewport treats the coordinate as absolute.
	OriginViewport Origin = "viewport"
	// OriginPointer offsets from the previous pointer position.
	OriginPointer Origin = "pointer"
	// OriginElement offsets from the centre of Element.
	OriginElement Origin = "element"
)

// ChainMoveSteps is the interpolation step count for pointerMove.
const ChainMoveSteps = 20

// KeyStep is one entry of the key timeline.
type KeyStep struct {
	Kind     StepKind
	Duration time.Duration
	Value    string
}

// PointerStep is one entry of the pointer timeline.
type PointerStep struct {
	Kind     StepKind
	Duration time.Duration
	Point    geom.Point
	Origin   Origin
	Element  string
	Button   int
}

// Chain is a key timeline and a pointer timeline replayed index by index.
type Chain struct {
	Keys    []KeyStep
	Pointer []PointerStep
}

// Pause returns a key-timeline pause.
func Pause(d time.Duration) KeyStep {
	return KeyStep{Kind: StepPause, Duration: d}
}

// KeyDown returns a key press.
func KeyDown(value string) KeyStep {
	return KeyStep{Kind: StepKeyDown, Value: value}
}

// KeyUp returns a key release.
func KeyUp(value string) KeyStep {
	return KeyStep{Kind: StepKeyUp, Value: value}
}

// PointerPause returns a pointer-timeline pause.
func PointerPause(d time.Duration) PointerStep {
	return PointerStep{Kind: StepPause, Duration: d}
}

// PointerMove returns an absolute pointer move.
func PointerMove(p geom.Point) PointerStep {
	return PointerStep{Kind: StepPointerMove, Point: p, Origin: OriginViewport}
}

// PointerMoveElement returns a move to an offset from an element centre.
func PointerMoveElement(element string, offset geom.Point) PointerStep {
	return PointerStep{Kind: StepPointerMove, Point: offset, Origin: OriginElement, Element: element}
}

// PointerDown returns a button press.
func PointerDown(button int) PointerStep {
	return PointerStep{Kind: StepPointerDown, Button: button}
}

// PointerUp returns a button release.
func PointerUp(button int) PointerStep {
	return PointerStep{Kind: StepPointerUp, Button: button}
}
