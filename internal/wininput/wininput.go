// Package wininput delivers synthesized events to the Windows desktop through SendInput.
package wininput

import (
	"errors"
	"math"

	"github.com/frudas24/qaagent/internal/contact"
	"github.com/frudas24/qaagent/internal/geom"
)

// ErrUnsupported indicates WinAPI input injection is not available.
var ErrUnsupported = errors.New("wininput is only supported on Windows")

// ErrWindowNotFound reports an activation target that does not exist.
var ErrWindowNotFound = errors.New("window not found")

// primaryContact returns the lowest-id contact of a batch. Windows has a
// single cursor, so only that contact drives it.
func primaryContact(points []contact.Point) (contact.Point, bool) {
	if len(points) == 0 {
		return contact.Point{}, false
	}
	primary := points[0]
	for _, p := range points[1:] {
		if p.ID < primary.ID {
			primary = p
		}
	}
	return primary, true
}

// screenPoint rounds a global point to whole pixels.
func screenPoint(p geom.Point) (int, int) {
	return int(math.Round(p.X)), int(math.Round(p.Y))
}
