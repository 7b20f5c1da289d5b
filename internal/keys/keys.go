// Package keys maps WebDriver key values onto key codes, modifiers and buttons.
package keys

import (
	"strings"
	"unicode/utf8"
)

// Code identifies a non-text key. Code None means the event carries only text.
type Code int

// Key codes understood by the event sinks.
const (
	None Code = iota
	Cancel
	Help
	Backspace
	Tab
	Clear
	Return
	Enter
	Shift
	Control
	Alt
	Pause
	Escape
	Space
	PageUp
	PageDown
	End
	Home
	Left
	Up
	Right
	Down
	Insert
	Delete
	Semicolon
	Equal
	Digit0
	Digit1
	Digit2
	Digit3
	Digit4
	Digit5
	Digit6
	Digit7
	Digit8
	Digit9
	Asterisk
	Plus
	Colon
	Minus
	Period
	Slash
	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12
	Meta
	LetterA
)

// LetterZ is the last letter code; letters are contiguous from LetterA.
const LetterZ = LetterA + 25

// Modifiers is a keyboard-modifier bit mask.
type Modifiers uint8

// Modifier bits.
const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModAlt
	ModMeta
	ModKeypad
)

// Has reports whether all bits of m2 are set in m.
func (m Modifiers) Has(m2 Modifiers) bool {
	return m&m2 == m2
}

// String renders the mask as "ctrl+shift" style text.
func (m Modifiers) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	for _, item := range []struct {
		bit  Modifiers
		name string
	}{{ModControl, "ctrl"}, {ModAlt, "alt"}, {ModShift, "shift"}, {ModMeta, "meta"}, {ModKeypad, "keypad"}} {
		if m&item.bit != 0 {
			parts = append(parts, item.name)
		}
	}
	return strings.Join(parts, "+")
}

// Button identifies a mouse button; values double as mask bits.
type Button uint8

// Mouse buttons.
const (
	ButtonNone   Button = 0
	ButtonLeft   Button = 1 << 0
	ButtonRight  Button = 1 << 1
	ButtonMiddle Button = 1 << 2
	ButtonBack   Button = 1 << 3
	ButtonFwd    Button = 1 << 4
)

// ButtonFor maps a WebDriver pointer button number (0 left, 1 middle, 2 right).
func ButtonFor(n int) Button {
	switch n {
	case 1:
		return ButtonMiddle
	case 2:
		return ButtonRight
	case 3:
		return ButtonBack
	case 4:
		return ButtonFwd
	default:
		return ButtonLeft
	}
}

const (
	seleniumFirst = 0xE000
	seleniumLast  = 0xE03D
)

// selenium is indexed by code point minus 0xE000.
var selenium = [seleniumLast - seleniumFirst + 1]Code{
	None, Cancel, Help, Backspace, Tab, Clear, Return, Enter,
	Shift, Control, Alt, Pause, Escape, Space, PageUp, PageDown,
	End, Home, Left, Up, Right, Down, Insert, Delete,
	Semicolon, Equal, Digit0, Digit1, Digit2, Digit3, Digit4, Digit5,
	Digit6, Digit7, Digit8, Digit9, Asterisk, Plus, Colon, Minus,
	Period, Slash, None, None, None, None, None, None,
	None, F1, F2, F3, F4, F5, F6, F7,
	F8, F9, F10, F11, F12, Meta,
}

var named = map[string]Code{
	"cancel":     Cancel,
	"help":       Help,
	"backspace":  Backspace,
	"tab":        Tab,
	"clear":      Clear,
	"return":     Return,
	"enter":      Enter,
	"shift":      Shift,
	"control":    Control,
	"ctrl":       Control,
	"alt":        Alt,
	"option":     Alt,
	"pause":      Pause,
	"escape":     Escape,
	"esc":        Escape,
	"space":      Space,
	"pageup":     PageUp,
	"pagedown":   PageDown,
	"end":        End,
	"home":       Home,
	"left":       Left,
	"arrowleft":  Left,
	"up":         Up,
	"arrowup":    Up,
	"right":      Right,
	"arrowright": Right,
	"down":       Down,
	"arrowdown":  Down,
	"insert":     Insert,
	"delete":     Delete,
	"meta":       Meta,
	"command":    Meta,
	"f1":         F1,
	"f2":         F2,
	"f3":         F3,
	"f4":         F4,
	"f5":         F5,
	"f6":         F6,
	"f7":         F7,
	"f8":         F8,
	"f9":         F9,
	"f10":        F10,
	"f11":        F11,
	"f12":        F12,
}

// Lookup resolves a key value into a key code and the text it types.
//
// Single characters in the WebDriver private range (U+E000..U+E03D) and
// upper-case ASCII letters produce a code with no text. Multi-character values
// are matched against key names such as "Control" or "ArrowLeft"; anything
// else is typed as plain text with code None.
func Lookup(value string) (Code, string) {
	if value == "" {
		return None, ""
	}
	r, size := utf8.DecodeRuneInString(value)
	if size == len(value) {
		switch {
		case r >= 'A' && r <= 'Z':
			return LetterA + Code(r-'A'), ""
		case r >= seleniumFirst && r <= seleniumLast:
			return selenium[r-seleniumFirst], ""
		default:
			return None, value
		}
	}
	if code, ok := named[strings.ToLower(value)]; ok {
		return code, ""
	}
	return None, value
}

// ModifierFor returns the modifier bit a key toggles, or zero.
func ModifierFor(code Code) Modifiers {
	switch {
	case code == Control:
		return ModControl
	case code == Alt:
		return ModAlt
	case code == Shift:
		return ModShift
	case code == Meta:
		return ModMeta
	case code >= Digit0 && code <= Digit9:
		return ModKeypad
	default:
		return 0
	}
}

// IsLetter reports whether code is one of LetterA..LetterZ.
func IsLetter(code Code) bool {
	return code >= LetterA && code <= LetterZ
}
