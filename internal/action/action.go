// Package action describes declarative gesture programs replayed by the sequencer.
package action

import (
	"time"

	"github.com/frudas24/qaagent/internal/geom"
)

// Kind identifies one step of an action list. Values match the wire names.
type Kind string

const (
	// KindWait suspends the sequence.
	KindWait Kind = "wait"
	// KindTap presses and releases in place, Count times.
	KindTap Kind = "tap"
	// KindPress puts a contact down.
	KindPress Kind = "press"
	// KindMoveTo moves the current contact along an interpolated path.
	KindMoveTo Kind = "moveTo"
	// KindRelease lifts the current contact.
	KindRelease Kind = "release"
	// KindLongPress presses and holds without releasing.
	KindLongPress Kind = "longPress"
)

// Defaults applied when an option is absent.
const (
	DefaultMoveDuration = 500 * time.Millisecond
	DefaultMoveSteps    = 20
	DefaultTapCount     = 1
	TapDwell            = 200 * time.Millisecond
)

// Target is where a step lands: an element resolved at replay time, or a point.
type Target struct {
	Point    geom.Point
	HasPoint bool
	Element  string
}

// At targets a fixed point.
func At(p geom.Point) Target {
	return Target{Point: p, HasPoint: true}
}

// On targets the centre of an element, resolved when the step runs.
func On(element string) Target {
	return Target{Element: element}
}

// Action is one step of an action list. Unknown tags keep their name in Kind.
type Action struct {
	Kind     Kind
	Target   Target
	Duration time.Duration
	Steps    int
	Count    int
}

// List is an ordered, single-shot gesture program.
type List []Action

// Wait returns a wait step.
func Wait(d time.Duration) Action {
	return Action{Kind: KindWait, Duration: d}
}

// Tap returns a tap step repeated count times.
func Tap(t Target, count int) Action {
	return Action{Kind: KindTap, Target: t, Count: count}
}

// Press returns a press step.
func Press(t Target) Action {
	return Action{Kind: KindPress, Target: t}
}

// MoveTo returns a move step spread over d in the given number of steps.
func MoveTo(t Target, d time.Duration, steps int) Action {
	return Action{Kind: KindMoveTo, Target: t, Duration: d, Steps: steps}
}

// Release returns a release at the last known position.
func Release() Action {
	return Action{Kind: KindRelease}
}

// ReleaseAt returns a release at an explicit point.
func ReleaseAt(p geom.Point) Action {
	return Action{Kind: KindRelease, Target: At(p)}
}

// LongPress returns a press held for hold. It does not release.
func LongPress(t Target, hold time.Duration) Action {
	return Action{Kind: KindLongPress, Target: t, Duration: hold}
}
