// Package testutil holds fakes shared by package tests.
package testutil

import (
	"sync"

	"github.com/frudas24/qaagent/internal/event"
)

// Record is one event captured by FakeSink, in arrival order.
type Record struct {
	Touch *event.TouchEvent
	Mouse *event.MouseEvent
	Key   *event.KeyEvent
}

// FakeSink implements event.Sink and records events for tests.
type FakeSink struct {
	mu      sync.Mutex
	records []Record
	// Err is returned from every Emit call when set.
	Err error
}

// Ensure FakeSink implements the interface.
var _ event.Sink = (*FakeSink)(nil)

// EmitTouch records a touch event.
func (f *FakeSink) EmitTouch(ev event.TouchEvent) error {
	ev.Points = append(ev.Points[:0:0], ev.Points...)
	f.add(Record{Touch: &ev})
	return f.Err
}

// EmitMouse records a mouse event.
func (f *FakeSink) EmitMouse(ev event.MouseEvent) error {
	f.add(Record{Mouse: &ev})
	return f.Err
}

// EmitKey records a key event.
func (f *FakeSink) EmitKey(ev event.KeyEvent) error {
	f.add(Record{Key: &ev})
	return f.Err
}

func (f *FakeSink) add(r Record) {
	f.mu.Lock()
	f.records = append(f.records, r)
	f.mu.Unlock()
}

// Records returns a copy of everything recorded so far.
func (f *FakeSink) Records() []Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Record(nil), f.records...)
}

// Touches returns only the touch events.
func (f *FakeSink) Touches() []event.TouchEvent {
	var out []event.TouchEvent
	for _, r := range f.Records() {
		if r.Touch != nil {
			out = append(out, *r.Touch)
		}
	}
	return out
}

// Mice returns only the mouse events.
func (f *FakeSink) Mice() []event.MouseEvent {
	var out []event.MouseEvent
	for _, r := range f.Records() {
		if r.Mouse != nil {
			out = append(out, *r.Mouse)
		}
	}
	return out
}

// Keys returns only the key events.
func (f *FakeSink) Keys() []event.KeyEvent {
	var out []event.KeyEvent
	for _, r := range f.Records() {
		if r.Key != nil {
			out = append(out, *r.Key)
		}
	}
	return out
}

// Reset drops all recorded events.
func (f *FakeSink) Reset() {
	f.mu.Lock()
	f.records = nil
	f.mu.Unlock()
}
