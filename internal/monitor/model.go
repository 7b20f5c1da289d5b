// Package monitor describes display geometry and enumeration.
package monitor

import (
	"errors"
	"fmt"
	"math"

	"github.com/frudas24/qaagent/internal/geom"
)

// ErrNoMonitors is returned when a layout holds no displays.
var ErrNoMonitors = errors.New("no monitors available")

// Monitor is one display placed on the virtual desktop. Index is 1-based.
type Monitor struct {
	Index   int  `json:"index"`
	X       int  `json:"x"`
	Y       int  `json:"y"`
	W       int  `json:"w"`
	H       int  `json:"h"`
	Primary bool `json:"primary"`
}

// Origin is the top-left corner in virtual-desktop pixels.
func (m Monitor) Origin() geom.Point {
	return geom.Pt(float64(m.X), float64(m.Y))
}

// Bounds returns the monitor rectangle.
func (m Monitor) Bounds() geom.Rect {
	return geom.Rect{X: float64(m.X), Y: float64(m.Y), W: float64(m.W), H: float64(m.H)}
}

// Single is a lone primary display of the given size at the desktop origin.
func Single(w, h int) Monitor {
	return Monitor{Index: 1, W: w, H: h, Primary: true}
}

// Layout is the set of displays attached to the host.
type Layout []Monitor

// Find returns the display with the given index.
func (l Layout) Find(idx int) (Monitor, bool) {
	for _, m := range l {
		if m.Index == idx {
			return m, true
		}
	}
	return Monitor{}, false
}

// Primary returns the primary display, or the first one when none is flagged.
func (l Layout) Primary() (Monitor, error) {
	if len(l) == 0 {
		return Monitor{}, ErrNoMonitors
	}
	for _, m := range l {
		if m.Primary {
			return m, nil
		}
	}
	return l[0], nil
}

// Select returns display idx, or the primary one when idx <= 0.
func (l Layout) Select(idx int) (Monitor, error) {
	if idx <= 0 {
		return l.Primary()
	}
	if m, ok := l.Find(idx); ok {
		return m, nil
	}
	return Monitor{}, fmt.Errorf("monitor %d not found", idx)
}

// Desktop returns the smallest rectangle covering every display.
func (l Layout) Desktop() geom.Rect {
	if len(l) == 0 {
		return geom.Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, m := range l {
		b := m.Bounds()
		minX = math.Min(minX, b.X)
		minY = math.Min(minY, b.Y)
		maxX = math.Max(maxX, b.X+b.W)
		maxY = math.Max(maxY, b.Y+b.H)
	}
	return geom.Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
