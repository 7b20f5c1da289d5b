// Package contact tracks the live touch contacts of synthesized multi-touch gestures.
package contact

import (
	"sort"

	"github.com/frudas24/qaagent/internal/geom"
)

// AreaSize is the edge length of the square contact area centred on each touch.
const AreaSize = 32

// State is the per-contact state carried in a touch batch.
type State int

// Contact states.
const (
	Pressed State = iota + 1
	Moved
	Stationary
	Released
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Pressed:
		return "pressed"
	case Moved:
		return "moved"
	case Stationary:
		return "stationary"
	case Released:
		return "released"
	default:
		return "unknown"
	}
}

// Source identifies the sequencer driving a contact.
type Source uint64

// Point is one simulated finger.
type Point struct {
	ID       int
	State    State
	Pos      geom.Point
	LastPos  geom.Point
	StartPos geom.Point
	Area     geom.Rect
	Pressure float64
}

// Registry holds live contacts keyed by the sequencer that owns them.
// It is not safe for concurrent use; the gesture engine touches it only from its main loop.
type Registry struct {
	next int
	live map[Source]*Point
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{live: make(map[Source]*Point)}
}

// Press allocates a new contact for src at p and returns the resulting batch.
// A live contact already owned by src is replaced.
func (r *Registry) Press(src Source, p geom.Point) (Point, []Point) {
	r.next++
	c := &Point{
		ID:       r.next,
		State:    Pressed,
		Pos:      p,
		LastPos:  p,
		StartPos: p,
		Area:     geom.RectAround(p, AreaSize, AreaSize),
		Pressure: 1,
	}
	r.live[src] = c
	return *c, r.batch(src)
}

// Move updates the contact owned by src. ok is false when src has no live contact.
func (r *Registry) Move(src Source, p geom.Point) (c Point, batch []Point, ok bool) {
	cur, ok := r.live[src]
	if !ok {
		return Point{}, nil, false
	}
	cur.LastPos = cur.Pos
	cur.Pos = p
	cur.Area = geom.RectAround(p, AreaSize, AreaSize)
	cur.State = Moved
	return *cur, r.batch(src), true
}

// Release ends the contact owned by src and removes it after building the batch.
// last reports whether no other contact remains live.
func (r *Registry) Release(src Source, p geom.Point) (c Point, batch []Point, last bool, ok bool) {
	cur, ok := r.live[src]
	if !ok {
		return Point{}, nil, false, false
	}
	cur.LastPos = cur.Pos
	cur.Pos = p
	cur.Area = geom.RectAround(p, AreaSize, AreaSize)
	cur.State = Released
	cur.Pressure = 0
	batch = r.batch(src)
	delete(r.live, src)
	return *cur, batch, len(r.live) == 0, true
}

// Has reports whether src owns a live contact.
func (r *Registry) Has(src Source) bool {
	_, ok := r.live[src]
	return ok
}

// Len returns the number of live contacts.
func (r *Registry) Len() int {
	return len(r.live)
}

// Clear drops every live contact. Ids keep counting from where they were.
func (r *Registry) Clear() int {
	n := len(r.live)
	r.live = make(map[Source]*Point)
	return n
}

// Live returns a copy of the live contacts ordered by id.
func (r *Registry) Live() []Point {
	out := make([]Point, 0, len(r.live))
	for _, c := range r.live {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// batch marks every contact but the one owned by active as stationary and snapshots the set.
func (r *Registry) batch(active Source) []Point {
	for src, c := range r.live {
		if src != active {
			c.State = Stationary
			c.LastPos = c.Pos
		}
	}
	return r.Live()
}
