package uinput

import (
	"math"

	"github.com/frudas24/qaagent/internal/contact"
	"github.com/frudas24/qaagent/internal/event"
	"github.com/frudas24/qaagent/internal/geom"
	"github.com/frudas24/qaagent/internal/keys"
)

// framer turns synthesized events into evdev frames. Touch contacts are
// assigned type-B multi-touch slots by contact id.
type framer struct {
	origin        geom.Point
	width, height int32
	slots         map[int]int32
	used          [maxSlots]bool
}

func newFramer(origin geom.Point, width, height int) *framer {
	return &framer{
		origin: origin,
		width:  int32(width),
		height: int32(height),
		slots:  make(map[int]int32),
	}
}

func (f *framer) position(p geom.Point) (int32, int32) {
	x := int32(math.Round(p.X))
	y := int32(math.Round(p.Y))
	return clamp(x, 0, f.width-1), clamp(y, 0, f.height-1)
}

func clamp(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (f *framer) allocSlot(id int) (int32, bool) {
	if slot, ok := f.slots[id]; ok {
		return slot, true
	}
	for i := range f.used {
		if !f.used[i] {
			f.used[i] = true
			f.slots[id] = int32(i)
			return int32(i), true
		}
	}
	return 0, false
}

func (f *framer) freeSlot(id int) {
	if slot, ok := f.slots[id]; ok {
		f.used[slot] = false
		delete(f.slots, id)
	}
}

func pressure(p float64) int32 {
	return clamp(int32(math.Round(p*maxPressure)), 0, maxPressure)
}

// touch returns the frame for one touch batch. Stationary contacts emit
// nothing; contacts beyond maxSlots are dropped and reported by count.
func (f *framer) touch(ev event.TouchEvent) ([]inputEvent, int) {
	var out []inputEvent
	dropped := 0
	for _, p := range ev.Points {
		switch p.State {
		case contact.Pressed:
			slot, ok := f.allocSlot(p.ID)
			if !ok {
				dropped++
				continue
			}
			x, y := f.position(p.Pos.Add(f.origin))
			out = append(out,
				inputEvent{evAbs, absMTSlot, slot},
				inputEvent{evAbs, absMTTrackingID, int32(p.ID % maxTrackingID)},
				inputEvent{evAbs, absMTPositionX, x},
				inputEvent{evAbs, absMTPositionY, y},
				inputEvent{evAbs, absMTTouchMajor, int32(p.Area.W)},
				inputEvent{evAbs, absMTPressure, pressure(p.Pressure)},
			)
		case contact.Moved:
			slot, ok := f.slots[p.ID]
			if !ok {
				dropped++
				continue
			}
			x, y := f.position(p.Pos.Add(f.origin))
			out = append(out,
				inputEvent{evAbs, absMTSlot, slot},
				inputEvent{evAbs, absMTPositionX, x},
				inputEvent{evAbs, absMTPositionY, y},
			)
		case contact.Released:
			slot, ok := f.slots[p.ID]
			if !ok {
				continue
			}
			out = append(out,
				inputEvent{evAbs, absMTSlot, slot},
				inputEvent{evAbs, absMTTrackingID, -1},
			)
			f.freeSlot(p.ID)
		}
	}
	switch ev.Type {
	case event.TouchBegin:
		out = append(out, inputEvent{evKey, btnTouch, 1}, inputEvent{evKey, btnToolFinger, 1})
	case event.TouchEnd:
		out = append(out, inputEvent{evKey, btnTouch, 0}, inputEvent{evKey, btnToolFinger, 0})
	}
	if len(out) == 0 {
		return nil, dropped
	}
	return append(out, syn()), dropped
}

// mouse returns the frame for one pointer event. Global coordinates are used.
func (f *framer) mouse(ev event.MouseEvent) []inputEvent {
	x, y := f.position(ev.Global)
	out := []inputEvent{{evAbs, absX, x}, {evAbs, absY, y}}
	switch ev.Type {
	case event.MousePress:
		out = append(out, inputEvent{evKey, buttonCode(ev.Button), 1})
	case event.MouseRelease:
		out = append(out, inputEvent{evKey, buttonCode(ev.Button), 0})
	}
	return append(out, syn())
}

func buttonCode(b keys.Button) uint16 {
	switch b {
	case keys.ButtonRight:
		return btnRight
	case keys.ButtonMiddle:
		return btnMiddle
	case keys.ButtonBack:
		return btnSide
	case keys.ButtonFwd:
		return btnExtra
	default:
		return btnLeft
	}
}

// key returns the frame for one key event. A key code wins over text. A single
// typed character follows press and release; longer text is typed whole on
// press. Characters without a US-layout key are skipped and counted.
func (f *framer) key(ev event.KeyEvent) ([]inputEvent, int) {
	value := int32(1)
	if ev.Type == event.KeyRelease {
		value = 0
	}
	if code, ok := keyCode(ev.Key); ok {
		return []inputEvent{{evKey, code, value}, syn()}, 0
	}
	runes := []rune(ev.Text)
	if len(runes) == 0 {
		return nil, 0
	}
	if len(runes) == 1 {
		s, ok := strokeFor(runes[0])
		if !ok {
			return nil, 1
		}
		return strokeEvents(s, value), 0
	}
	if ev.Type == event.KeyRelease {
		return nil, 0
	}
	var out []inputEvent
	skipped := 0
	for _, r := range runes {
		s, ok := strokeFor(r)
		if !ok {
			skipped++
			continue
		}
		out = append(out, strokeEvents(s, 1)...)
		out = append(out, strokeEvents(s, 0)...)
	}
	return out, skipped
}

// strokeEvents presses or releases one key, wrapping it in shift when needed.
func strokeEvents(s stroke, value int32) []inputEvent {
	if !s.shift {
		return []inputEvent{{evKey, s.code, value}, syn()}
	}
	if value == 1 {
		return []inputEvent{{evKey, keyLeftShift, 1}, {evKey, s.code, 1}, syn()}
	}
	return []inputEvent{{evKey, s.code, 0}, {evKey, keyLeftShift, 0}, syn()}
}

// touchSpec describes the multi-touch screen device.
func touchSpec(width, height int) deviceSpec {
	return deviceSpec{
		Name:    "qaagent touch",
		Product: 0x0001,
		Keys:    []uint16{btnTouch, btnToolFinger},
		Axes: []axis{
			{Code: absX, Max: int32(width - 1)},
			{Code: absY, Max: int32(height - 1)},
			{Code: absMTSlot, Max: maxSlots - 1},
			{Code: absMTTrackingID, Max: maxTrackingID},
			{Code: absMTPositionX, Max: int32(width - 1)},
			{Code: absMTPositionY, Max: int32(height - 1)},
			{Code: absMTTouchMajor, Max: 255},
			{Code: absMTPressure, Max: maxPressure},
		},
		Direct: true,
	}
}

// pointerSpec describes the absolute pointer plus keyboard device.
func pointerSpec(width, height int) deviceSpec {
	return deviceSpec{
		Name:    "qaagent pointer",
		Product: 0x0002,
		Keys:    supportedKeys(),
		Axes: []axis{
			{Code: absX, Max: int32(width - 1)},
			{Code: absY, Max: int32(height - 1)},
		},
	}
}
