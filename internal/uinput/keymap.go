package uinput

import "github.com/frudas24/qaagent/internal/keys"

// linuxKeys maps non-letter key codes onto evdev KEY_* codes.
var linuxKeys = map[keys.Code]uint16{
	keys.Cancel:    223,
	keys.Help:      138,
	keys.Backspace: 14,
	keys.Tab:       15,
	keys.Clear:     0x163,
	keys.Return:    keyEnter,
	keys.Enter:     keyEnter,
	keys.Shift:     keyLeftShift,
	keys.Control:   29,
	keys.Alt:       56,
	keys.Pause:     119,
	keys.Escape:    1,
	keys.Space:     57,
	keys.PageUp:    104,
	keys.PageDown:  109,
	keys.End:       107,
	keys.Home:      102,
	keys.Left:      105,
	keys.Up:        103,
	keys.Right:     106,
	keys.Down:      108,
	keys.Insert:    110,
	keys.Delete:    111,
	keys.Semicolon: 39,
	keys.Equal:     13,
	keys.Digit0:    82,
	keys.Digit1:    79,
	keys.Digit2:    80,
	keys.Digit3:    81,
	keys.Digit4:    75,
	keys.Digit5:    76,
	keys.Digit6:    77,
	keys.Digit7:    71,
	keys.Digit8:    72,
	keys.Digit9:    73,
	keys.Asterisk:  55,
	keys.Plus:      78,
	keys.Colon:     121,
	keys.Minus:     74,
	keys.Period:    83,
	keys.Slash:     98,
	keys.F1:        59,
	keys.F2:        60,
	keys.F3:        61,
	keys.F4:        62,
	keys.F5:        63,
	keys.F6:        64,
	keys.F7:        65,
	keys.F8:        66,
	keys.F9:        67,
	keys.F10:       68,
	keys.F11:       87,
	keys.F12:       88,
	keys.Meta:      125,
}

// letterKeys holds KEY_A..KEY_Z in alphabet order (the evdev codes follow the QWERTY rows).
var letterKeys = [26]uint16{
	30, 48, 46, 32, 18, 33, 34, 35, 23, 36, 37, 38, 50,
	49, 24, 25, 16, 19, 31, 20, 22, 47, 17, 45, 21, 44,
}

// stroke is one key of typed text.
type stroke struct {
	code  uint16
	shift bool
}

var punctuation = map[rune]stroke{
	' ': {57, false}, '\n': {keyEnter, false}, '\t': {15, false},
	'-': {12, false}, '=': {13, false}, '[': {26, false}, ']': {27, false},
	';': {39, false}, '\'': {40, false}, '`': {41, false}, '\\': {43, false},
	',': {51, false}, '.': {52, false}, '/': {53, false},
	'_': {12, true}, '+': {13, true}, '{': {26, true}, '}': {27, true},
	':': {39, true}, '"': {40, true}, '~': {41, true}, '|': {43, true},
	'<': {51, true}, '>': {52, true}, '?': {53, true},
	'!': {2, true}, '@': {3, true}, '#': {4, true}, '$': {5, true}, '%': {6, true},
	'^': {7, true}, '&': {8, true}, '*': {9, true}, '(': {10, true}, ')': {11, true},
}

// keyCode returns the evdev code of a non-text key.
func keyCode(code keys.Code) (uint16, bool) {
	if keys.IsLetter(code) {
		return letterKeys[code-keys.LetterA], true
	}
	c, ok := linuxKeys[code]
	return c, ok
}

// strokeFor returns the key that types r on a US layout.
func strokeFor(r rune) (stroke, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return stroke{code: letterKeys[r-'a']}, true
	case r >= 'A' && r <= 'Z':
		return stroke{code: letterKeys[r-'A'], shift: true}, true
	case r == '0':
		return stroke{code: 11}, true
	case r >= '1' && r <= '9':
		return stroke{code: uint16(2 + r - '1')}, true
	}
	s, ok := punctuation[r]
	return s, ok
}

// supportedKeys lists every key code the pointer device may emit.
func supportedKeys() []uint16 {
	seen := map[uint16]bool{}
	var out []uint16
	add := func(c uint16) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, c := range letterKeys {
		add(c)
	}
	for _, c := range linuxKeys {
		add(c)
	}
	for c := uint16(2); c <= 11; c++ {
		add(c)
	}
	for _, s := range punctuation {
		add(s.code)
	}
	for _, c := range []uint16{btnLeft, btnRight, btnMiddle, btnSide, btnExtra} {
		add(c)
	}
	return out
}
