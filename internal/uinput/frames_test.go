package uinput

import (
	"encoding/binary"
	"testing"

	"github.com/frudas24/qaagent/internal/contact"
	"github.com/frudas24/qaagent/internal/event"
	"github.com/frudas24/qaagent/internal/geom"
	"github.com/frudas24/qaagent/internal/keys"
)

// TestIoc_Requests verifies uinput request numbers match the kernel headers.
func TestIoc_Requests(t *testing.T) {
	if uiDevCreate != 0x5501 {
		t.Fatalf("UI_DEV_CREATE=%#x", uiDevCreate)
	}
	if uiDevDestroy != 0x5502 {
		t.Fatalf("UI_DEV_DESTROY=%#x", uiDevDestroy)
	}
	if uiSetEvBit != 0x40045564 {
		t.Fatalf("UI_SET_EVBIT=%#x", uiSetEvBit)
	}
	if uiSetKeyBit != 0x40045565 {
		t.Fatalf("UI_SET_KEYBIT=%#x", uiSetKeyBit)
	}
}

// TestEncodeEvents_Layout verifies events follow a zero timeval.
func TestEncodeEvents_Layout(t *testing.T) {
	buf := encodeEvents([]inputEvent{{evAbs, absMTTrackingID, -1}, syn()})
	if len(buf) != 2*inputEventLen {
		t.Fatalf("len=%d", len(buf))
	}
	for _, b := range buf[:timevalSize] {
		if b != 0 {
			t.Fatalf("timeval not zero: %v", buf[:timevalSize])
		}
	}
	if got := binary.LittleEndian.Uint16(buf[timevalSize:]); got != evAbs {
		t.Fatalf("type=%d", got)
	}
	if got := binary.LittleEndian.Uint16(buf[timevalSize+2:]); got != absMTTrackingID {
		t.Fatalf("code=%#x", got)
	}
	if got := int32(binary.LittleEndian.Uint32(buf[timevalSize+4:])); got != -1 {
		t.Fatalf("value=%d", got)
	}
}

// TestEncodeUserDev_Axes verifies the legacy setup struct carries name and ranges.
func TestEncodeUserDev_Axes(t *testing.T) {
	buf := encodeUserDev(touchSpec(1920, 1080))
	if len(buf) != 1116 {
		t.Fatalf("len=%d", len(buf))
	}
	if string(buf[:13]) != "qaagent touch" || buf[13] != 0 {
		t.Fatalf("name=%q", buf[:14])
	}
	absMax := 80 + 12
	if got := binary.LittleEndian.Uint32(buf[absMax+4*absMTPositionX:]); got != 1919 {
		t.Fatalf("x max=%d", got)
	}
	if got := binary.LittleEndian.Uint32(buf[absMax+4*absMTSlot:]); got != maxSlots-1 {
		t.Fatalf("slot max=%d", got)
	}
}

func touchBatch(typ event.TouchType, pts ...contact.Point) event.TouchEvent {
	return event.TouchEvent{Type: typ, Points: pts}
}

// TestFramer_TouchLifecycle verifies slot assignment across begin, update and end.
func TestFramer_TouchLifecycle(t *testing.T) {
	f := newFramer(geom.Pt(10, 20), 100, 100)
	begin, _ := f.touch(touchBatch(event.TouchBegin,
		contact.Point{ID: 7, State: contact.Pressed, Pos: geom.Pt(5, 5), Pressure: 1}))
	want := []inputEvent{
		{evAbs, absMTSlot, 0},
		{evAbs, absMTTrackingID, 7},
		{evAbs, absMTPositionX, 15},
		{evAbs, absMTPositionY, 25},
		{evAbs, absMTTouchMajor, 0},
		{evAbs, absMTPressure, maxPressure},
		{evKey, btnTouch, 1},
		{evKey, btnToolFinger, 1},
		syn(),
	}
	if len(begin) != len(want) {
		t.Fatalf("begin=%v", begin)
	}
	for i := range want {
		if begin[i] != want[i] {
			t.Fatalf("begin[%d]=%v want %v", i, begin[i], want[i])
		}
	}

	second, _ := f.touch(touchBatch(event.TouchUpdate,
		contact.Point{ID: 7, State: contact.Stationary, Pos: geom.Pt(5, 5)},
		contact.Point{ID: 8, State: contact.Pressed, Pos: geom.Pt(500, -3)}))
	if second[0] != (inputEvent{evAbs, absMTSlot, 1}) {
		t.Fatalf("second contact slot: %v", second)
	}
	if second[2] != (inputEvent{evAbs, absMTPositionX, 99}) || second[3] != (inputEvent{evAbs, absMTPositionY, 17}) {
		t.Fatalf("position not clamped: %v", second)
	}

	end, _ := f.touch(touchBatch(event.TouchEnd,
		contact.Point{ID: 7, State: contact.Released},
		contact.Point{ID: 8, State: contact.Released}))
	if end[1] != (inputEvent{evAbs, absMTTrackingID, -1}) || end[3] != (inputEvent{evAbs, absMTTrackingID, -1}) {
		t.Fatalf("end=%v", end)
	}
	if end[len(end)-3] != (inputEvent{evKey, btnTouch, 0}) {
		t.Fatalf("touch not lifted: %v", end)
	}
	if len(f.slots) != 0 {
		t.Fatalf("slots leaked: %v", f.slots)
	}
}

// TestFramer_SlotExhaustion verifies contacts beyond the slot count are dropped.
func TestFramer_SlotExhaustion(t *testing.T) {
	f := newFramer(geom.Point{}, 100, 100)
	var pts []contact.Point
	for i := 1; i <= maxSlots+2; i++ {
		pts = append(pts, contact.Point{ID: i, State: contact.Pressed})
	}
	_, dropped := f.touch(touchBatch(event.TouchBegin, pts...))
	if dropped != 2 {
		t.Fatalf("dropped=%d", dropped)
	}
}

// TestFramer_MouseButtons verifies pointer frames use global coordinates and button codes.
func TestFramer_MouseButtons(t *testing.T) {
	f := newFramer(geom.Pt(1000, 1000), 200, 200)
	frame := f.mouse(event.MouseEvent{Type: event.MousePress, Global: geom.Pt(30, 40), Button: keys.ButtonRight})
	want := []inputEvent{{evAbs, absX, 30}, {evAbs, absY, 40}, {evKey, btnRight, 1}, syn()}
	if len(frame) != len(want) {
		t.Fatalf("frame=%v", frame)
	}
	for i := range want {
		if frame[i] != want[i] {
			t.Fatalf("frame[%d]=%v want %v", i, frame[i], want[i])
		}
	}
	move := f.mouse(event.MouseEvent{Type: event.MouseMove, Global: geom.Pt(1, 1)})
	if len(move) != 3 {
		t.Fatalf("move frame=%v", move)
	}
}

// TestFramer_Keys verifies key codes, shifted text and unmapped characters.
func TestFramer_Keys(t *testing.T) {
	f := newFramer(geom.Point{}, 10, 10)

	frame, _ := f.key(event.KeyEvent{Type: event.KeyPress, Key: keys.LetterA + 1})
	if frame[0] != (inputEvent{evKey, 48, 1}) {
		t.Fatalf("B=%v", frame)
	}
	frame, _ = f.key(event.KeyEvent{Type: event.KeyRelease, Key: keys.Control})
	if frame[0] != (inputEvent{evKey, 29, 0}) {
		t.Fatalf("ctrl up=%v", frame)
	}

	frame, _ = f.key(event.KeyEvent{Type: event.KeyPress, Text: "?"})
	if frame[0] != (inputEvent{evKey, keyLeftShift, 1}) || frame[1] != (inputEvent{evKey, 53, 1}) {
		t.Fatalf("? press=%v", frame)
	}
	frame, _ = f.key(event.KeyEvent{Type: event.KeyRelease, Text: "?"})
	if frame[0] != (inputEvent{evKey, 53, 0}) || frame[1] != (inputEvent{evKey, keyLeftShift, 0}) {
		t.Fatalf("? release=%v", frame)
	}

	frame, skipped := f.key(event.KeyEvent{Type: event.KeyPress, Text: "hé1"})
	if skipped != 1 {
		t.Fatalf("skipped=%d", skipped)
	}
	if len(frame) != 8 {
		t.Fatalf("typed frame=%v", frame)
	}
	frame, _ = f.key(event.KeyEvent{Type: event.KeyRelease, Text: "hé1"})
	if frame != nil {
		t.Fatalf("release of typed text should be empty: %v", frame)
	}
}
