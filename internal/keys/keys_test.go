package keys

import "testing"

// TestLookup_SeleniumRange verifies private-use code points map to named keys.
func TestLookup_SeleniumRange(t *testing.T) {
	cases := map[string]Code{
		"\uE008": Shift,
		"\uE009": Control,
		"\uE00A": Alt,
		"\uE03D": Meta,
		"\uE007": Enter,
		"\uE006": Return,
		"\uE01A": Digit0,
		"\uE023": Digit9,
		"\uE031": F1,
		"\uE03C": F12,
		"\uE02A": None,
	}
	for value, want := range cases {
		code, text := Lookup(value)
		if code != want || text != "" {
			t.Fatalf("Lookup(%U): got code=%d text=%q, want %d", []rune(value)[0], code, text, want)
		}
	}
}

// TestLookup_LettersAndText verifies uppercase letters are codes and other runes are text.
func TestLookup_LettersAndText(t *testing.T) {
	if code, text := Lookup("A"); code != LetterA || text != "" {
		t.Fatalf("unexpected A: %d %q", code, text)
	}
	if code, text := Lookup("Z"); code != LetterZ || !IsLetter(code) || text != "" {
		t.Fatalf("unexpected Z: %d %q", code, text)
	}
	if code, text := Lookup("a"); code != None || text != "a" {
		t.Fatalf("unexpected a: %d %q", code, text)
	}
	if code, text := Lookup("é"); code != None || text != "é" {
		t.Fatalf("unexpected é: %d %q", code, text)
	}
}

// TestLookup_Names verifies multi-character key names resolve case-insensitively.
func TestLookup_Names(t *testing.T) {
	if code, _ := Lookup("Control"); code != Control {
		t.Fatalf("expected Control, got %d", code)
	}
	if code, _ := Lookup("ARROWLEFT"); code != Left {
		t.Fatalf("expected Left, got %d", code)
	}
	if code, text := Lookup("hello"); code != None || text != "hello" {
		t.Fatalf("expected plain text, got %d %q", code, text)
	}
}

// TestModifierFor verifies which keys toggle modifier bits.
func TestModifierFor(t *testing.T) {
	if ModifierFor(Control) != ModControl || ModifierFor(Shift) != ModShift ||
		ModifierFor(Alt) != ModAlt || ModifierFor(Meta) != ModMeta || ModifierFor(Digit5) != ModKeypad {
		t.Fatalf("unexpected modifier mapping")
	}
	if ModifierFor(Enter) != 0 || ModifierFor(LetterA) != 0 {
		t.Fatalf("expected no modifier for non-modifier keys")
	}
}

// TestButtonFor verifies WebDriver button numbers.
func TestButtonFor(t *testing.T) {
	if ButtonFor(0) != ButtonLeft || ButtonFor(1) != ButtonMiddle || ButtonFor(2) != ButtonRight {
		t.Fatalf("unexpected button mapping")
	}
	mask := ButtonLeft | ButtonRight
	mask &^= ButtonLeft
	if mask != ButtonRight {
		t.Fatalf("unexpected mask %b", mask)
	}
}

// TestModifiers_String verifies the readable mask form.
func TestModifiers_String(t *testing.T) {
	if s := (ModControl | ModShift).String(); s != "ctrl+shift" {
		t.Fatalf("unexpected string %q", s)
	}
	if s := Modifiers(0).String(); s != "none" {
		t.Fatalf("unexpected string %q", s)
	}
}
